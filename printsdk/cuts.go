package printsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Cut is a closed billing period for one device.
type Cut struct {
	ID            uuid.UUID  `json:"id" format:"uuid"`
	DeviceID      uuid.UUID  `json:"device_id" format:"uuid"`
	TenantID      uuid.UUID  `json:"tenant_id" format:"uuid"`
	PreviousCutID *uuid.UUID `json:"previous_cut_id,omitempty" format:"uuid"`
	StartCounter  int64      `json:"start_counter"`
	EndCounter    int64      `json:"end_counter"`
	TotalPages    int64      `json:"total_pages"`
	PeriodLabel   string     `json:"period_label"`
	SuppliesStart []Supply   `json:"supplies_start"`
	SuppliesEnd   []Supply   `json:"supplies_end"`
	DeviceName    string     `json:"device_name"`
	DeviceModel   string     `json:"device_model"`
	IsFirstCut    bool       `json:"is_first_cut"`
	Month         int        `json:"month"`
	Year          int        `json:"year"`
	CreatedAt     time.Time  `json:"created_at" format:"date-time"`
}

// RegisterCut closes the device's current billing period.
func (c *Client) RegisterCut(ctx context.Context, deviceID uuid.UUID) (Cut, error) {
	res, err := c.Request(ctx, http.MethodPost, fmt.Sprintf("/api/v1/devices/%s/cuts", deviceID), nil)
	if err != nil {
		return Cut{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		return Cut{}, ReadBodyAsError(res)
	}
	var cut Cut
	return cut, json.NewDecoder(res.Body).Decode(&cut)
}

// DeviceCuts returns up to limit cuts for the device, newest first. A zero
// limit uses the server default.
func (c *Client) DeviceCuts(ctx context.Context, deviceID uuid.UUID, limit int) ([]Cut, error) {
	path := fmt.Sprintf("/api/v1/devices/%s/cuts", deviceID)
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	res, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, ReadBodyAsError(res)
	}
	var cuts []Cut
	return cuts, json.NewDecoder(res.Body).Decode(&cuts)
}

func (c *Client) Cut(ctx context.Context, id uuid.UUID) (Cut, error) {
	res, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/cuts/%s", id), nil)
	if err != nil {
		return Cut{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Cut{}, ReadBodyAsError(res)
	}
	var cut Cut
	return cut, json.NewDecoder(res.Body).Decode(&cut)
}

// CutReport downloads the PDF report for a cut. The caller must close the
// returned reader.
func (c *Client) CutReport(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	res, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/api/v1/cuts/%s/report", id), nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, ReadBodyAsError(res)
	}
	return res.Body, nil
}
