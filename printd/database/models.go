package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	City         string    `db:"city" json:"city"`
	HashedSecret []byte    `db:"hashed_secret" json:"hashed_secret"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Device struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	TenantID    uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Host        string         `db:"host" json:"host"`
	Serial      sql.NullString `db:"serial" json:"serial"`
	Name        string         `db:"name" json:"name"`
	Model       string         `db:"model" json:"model"`
	Description string         `db:"description" json:"description"`
	City        string         `db:"city" json:"city"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayName is the name shown on reports and cut snapshots.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Host
}

// LatestState is the single mutable snapshot kept per device. It is
// overwritten by every ingestion and never holds history.
type LatestState struct {
	DeviceID       uuid.UUID     `db:"device_id" json:"device_id"`
	PageCount      sql.NullInt64 `db:"page_count" json:"page_count"`
	PageCountMono  sql.NullInt64 `db:"page_count_mono" json:"page_count_mono"`
	PageCountColor sql.NullInt64 `db:"page_count_color" json:"page_count_color"`
	Supplies       Supplies      `db:"supplies" json:"supplies"`
	LastSeenAt     sql.NullTime  `db:"last_seen_at" json:"last_seen_at"`
	// Online is the raw liveness signal reported at ingestion time. It is
	// not the derived online state; see devicestatus.Online.
	Online       bool          `db:"online" json:"online"`
	LowToner     bool          `db:"low_toner" json:"low_toner"`
	AgentVersion string        `db:"agent_version" json:"agent_version"`
	LatestCutID  uuid.NullUUID `db:"latest_cut_id" json:"latest_cut_id"`
	LastCutAt    sql.NullTime  `db:"last_cut_at" json:"last_cut_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// Cut is an immutable billing-period record. PreviousCutID points at the
// cut this one closed out, forming a backward chain per device.
type Cut struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	DeviceID      uuid.UUID     `db:"device_id" json:"device_id"`
	TenantID      uuid.UUID     `db:"tenant_id" json:"tenant_id"`
	PreviousCutID uuid.NullUUID `db:"previous_cut_id" json:"previous_cut_id"`
	StartCounter  int64         `db:"start_counter" json:"start_counter"`
	EndCounter    int64         `db:"end_counter" json:"end_counter"`
	TotalPages    int64         `db:"total_pages" json:"total_pages"`
	PeriodLabel   string        `db:"period_label" json:"period_label"`
	SuppliesStart Supplies      `db:"supplies_start" json:"supplies_start"`
	SuppliesEnd   Supplies      `db:"supplies_end" json:"supplies_end"`
	DeviceName    string        `db:"device_name" json:"device_name"`
	DeviceModel   string        `db:"device_model" json:"device_model"`
	IsFirstCut    bool          `db:"is_first_cut" json:"is_first_cut"`
	Month         int32         `db:"month" json:"month"`
	Year          int32         `db:"year" json:"year"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
