package printsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

type Device struct {
	ID          uuid.UUID `json:"id" format:"uuid"`
	TenantID    uuid.UUID `json:"tenant_id" format:"uuid"`
	Host        string    `json:"host"`
	Serial      string    `json:"serial,omitempty"`
	Name        string    `json:"name"`
	Model       string    `json:"model"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	CreatedAt   time.Time `json:"created_at" format:"date-time"`
	UpdatedAt   time.Time `json:"updated_at" format:"date-time"`
	// Online is derived from the last report's age at response time.
	Online bool         `json:"online"`
	State  *DeviceState `json:"state,omitempty"`
}

// DeviceState is the latest snapshot received for a device.
type DeviceState struct {
	PageCount      *int64     `json:"page_count"`
	PageCountMono  *int64     `json:"page_count_mono"`
	PageCountColor *int64     `json:"page_count_color"`
	Supplies       []Supply   `json:"supplies"`
	LastSeenAt     *time.Time `json:"last_seen_at" format:"date-time"`
	// Reachable is the agent's own liveness signal for the device.
	Reachable    bool       `json:"reachable"`
	LowToner     bool       `json:"low_toner"`
	AgentVersion string     `json:"agent_version"`
	LatestCutID  *uuid.UUID `json:"latest_cut_id,omitempty" format:"uuid"`
	LastCutAt    *time.Time `json:"last_cut_at,omitempty" format:"date-time"`
	UpdatedAt    time.Time  `json:"updated_at" format:"date-time"`
}

type Supply struct {
	Name  string   `json:"name"`
	Level *float64 `json:"level"`
	Max   *float64 `json:"max,omitempty"`
}

type DevicesFilter struct {
	// City restricts the listing to devices in a city, case-insensitively.
	City string
}

// Devices lists the tenant's devices.
func (c *Client) Devices(ctx context.Context, filter DevicesFilter) ([]Device, error) {
	path := "/api/v1/devices"
	if filter.City != "" {
		path += "?" + url.Values{"city": []string{filter.City}}.Encode()
	}
	res, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, ReadBodyAsError(res)
	}
	var devices []Device
	return devices, json.NewDecoder(res.Body).Decode(&devices)
}

func (c *Client) Device(ctx context.Context, id uuid.UUID) (Device, error) {
	res, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/devices/%s", id), nil)
	if err != nil {
		return Device{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Device{}, ReadBodyAsError(res)
	}
	var device Device
	return device, json.NewDecoder(res.Body).Decode(&device)
}
