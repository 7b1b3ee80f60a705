package printsdk

import (
	"context"
	"encoding/json"
	"net/http"
)

// TelemetryReport is one snapshot of a printer as seen by a field agent.
// Field names follow the agent wire format.
type TelemetryReport struct {
	Host           string         `json:"host" validate:"notblank"`
	Serial         string         `json:"serial,omitempty"`
	Name           string         `json:"name,omitempty"`
	Model          string         `json:"model,omitempty"`
	Description    string         `json:"description,omitempty"`
	City           string         `json:"city,omitempty"`
	PageCount      Number         `json:"pageCount"`
	PageCountMono  Number         `json:"pageCountMono"`
	PageCountColor Number         `json:"pageCountColor"`
	Supplies       []SupplyReport `json:"supplies,omitempty"`
	// Timestamp is RFC 3339 or Unix epoch milliseconds. When empty the
	// server uses its own clock.
	Timestamp    Timestamp `json:"timestamp,omitempty"`
	AgentVersion string    `json:"agentVersion,omitempty"`
}

type SupplyReport struct {
	Name  string `json:"name"`
	Level Number `json:"level"`
	Max   Number `json:"max"`
}

// TelemetryResponse echoes the device as stored after ingestion.
type TelemetryResponse struct {
	Device Device `json:"device"`
	// Created is true when this report registered a new device.
	Created bool `json:"created"`
}

// PostTelemetry submits a snapshot for the tenant owning the API key.
func (c *Client) PostTelemetry(ctx context.Context, req TelemetryReport) (TelemetryResponse, error) {
	res, err := c.Request(ctx, http.MethodPost, "/api/v1/telemetry", req)
	if err != nil {
		return TelemetryResponse{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return TelemetryResponse{}, ReadBodyAsError(res)
	}
	var resp TelemetryResponse
	return resp, json.NewDecoder(res.Body).Decode(&resp)
}
