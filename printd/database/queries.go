package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const tenantColumns = `id, name, city, hashed_secret, created_at`

type InsertTenantParams struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	City         string    `db:"city" json:"city"`
	HashedSecret []byte    `db:"hashed_secret" json:"hashed_secret"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (q *sqlQuerier) InsertTenant(ctx context.Context, arg InsertTenantParams) (Tenant, error) {
	const query = `
INSERT INTO
	tenants (id, name, city, hashed_secret, created_at)
VALUES
	($1, $2, $3, $4, $5)
RETURNING ` + tenantColumns

	var t Tenant
	err := q.db.GetContext(ctx, &t, query, arg.ID, arg.Name, arg.City, arg.HashedSecret, arg.CreatedAt)
	return t, err
}

func (q *sqlQuerier) GetTenantByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	var t Tenant
	err := q.db.GetContext(ctx, &t, query, id)
	return t, err
}

func (q *sqlQuerier) GetTenants(ctx context.Context) ([]Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants ORDER BY lower(name) ASC`

	var ts []Tenant
	err := q.db.SelectContext(ctx, &ts, query)
	return ts, err
}

func (q *sqlQuerier) DeleteTenantByID(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const deviceColumns = `id, tenant_id, host, serial, name, model, description, city, created_at, updated_at`

type InsertDeviceParams struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	TenantID    uuid.UUID      `db:"tenant_id" json:"tenant_id"`
	Host        string         `db:"host" json:"host"`
	Serial      sql.NullString `db:"serial" json:"serial"`
	Name        string         `db:"name" json:"name"`
	Model       string         `db:"model" json:"model"`
	Description string         `db:"description" json:"description"`
	City        string         `db:"city" json:"city"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

func (q *sqlQuerier) InsertDevice(ctx context.Context, arg InsertDeviceParams) (Device, error) {
	const query = `
INSERT INTO
	devices (id, tenant_id, host, serial, name, model, description, city, created_at, updated_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING ` + deviceColumns

	var d Device
	err := q.db.GetContext(ctx, &d, query,
		arg.ID, arg.TenantID, arg.Host, arg.Serial, arg.Name,
		arg.Model, arg.Description, arg.City, arg.CreatedAt,
	)
	return d, err
}

func (q *sqlQuerier) GetDeviceByID(ctx context.Context, id uuid.UUID) (Device, error) {
	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	var d Device
	err := q.db.GetContext(ctx, &d, query, id)
	return d, err
}

type GetDeviceByTenantAndSerialParams struct {
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Serial   string    `db:"serial" json:"serial"`
}

func (q *sqlQuerier) GetDeviceByTenantAndSerial(ctx context.Context, arg GetDeviceByTenantAndSerialParams) (Device, error) {
	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = $1 AND serial = $2`

	var d Device
	err := q.db.GetContext(ctx, &d, query, arg.TenantID, arg.Serial)
	return d, err
}

type GetDeviceByTenantAndHostParams struct {
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Host     string    `db:"host" json:"host"`
}

// GetDeviceByTenantAndHost only matches devices without a serial; a device
// that reported a serial is identified by it alone.
func (q *sqlQuerier) GetDeviceByTenantAndHost(ctx context.Context, arg GetDeviceByTenantAndHostParams) (Device, error) {
	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE tenant_id = $1 AND host = $2 AND serial IS NULL`

	var d Device
	err := q.db.GetContext(ctx, &d, query, arg.TenantID, arg.Host)
	return d, err
}

type GetDevicesByTenantIDParams struct {
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	// City filters case-insensitively when non-empty.
	City string `db:"city" json:"city"`
}

func (q *sqlQuerier) GetDevicesByTenantID(ctx context.Context, arg GetDevicesByTenantIDParams) ([]Device, error) {
	const query = `
SELECT ` + deviceColumns + `
FROM
	devices
WHERE
	tenant_id = $1
	AND CASE
		WHEN $2 :: text != '' THEN lower(city) = lower($2)
		ELSE true
	END
ORDER BY
	created_at ASC, id ASC`

	var ds []Device
	err := q.db.SelectContext(ctx, &ds, query, arg.TenantID, arg.City)
	return ds, err
}

type UpdateDeviceIdentityParams struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Host        string         `db:"host" json:"host"`
	Serial      sql.NullString `db:"serial" json:"serial"`
	Name        string         `db:"name" json:"name"`
	Model       string         `db:"model" json:"model"`
	Description string         `db:"description" json:"description"`
	City        string         `db:"city" json:"city"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

func (q *sqlQuerier) UpdateDeviceIdentity(ctx context.Context, arg UpdateDeviceIdentityParams) (Device, error) {
	const query = `
UPDATE
	devices
SET
	host = $2,
	serial = $3,
	name = $4,
	model = $5,
	description = $6,
	city = $7,
	updated_at = $8
WHERE
	id = $1
RETURNING ` + deviceColumns

	var d Device
	err := q.db.GetContext(ctx, &d, query,
		arg.ID, arg.Host, arg.Serial, arg.Name, arg.Model,
		arg.Description, arg.City, arg.UpdatedAt,
	)
	return d, err
}

const latestStateColumns = `device_id, page_count, page_count_mono, page_count_color, supplies,
	last_seen_at, online, low_toner, agent_version, latest_cut_id, last_cut_at, updated_at`

func (q *sqlQuerier) GetLatestStateByDeviceID(ctx context.Context, deviceID uuid.UUID) (LatestState, error) {
	const query = `SELECT ` + latestStateColumns + ` FROM latest_states WHERE device_id = $1`

	var s LatestState
	err := q.db.GetContext(ctx, &s, query, deviceID)
	return s, err
}

func (q *sqlQuerier) GetLatestStateByDeviceIDForUpdate(ctx context.Context, deviceID uuid.UUID) (LatestState, error) {
	const query = `SELECT ` + latestStateColumns + ` FROM latest_states WHERE device_id = $1 FOR UPDATE`

	var s LatestState
	err := q.db.GetContext(ctx, &s, query, deviceID)
	return s, err
}

func (q *sqlQuerier) GetLatestStatesByDeviceIDs(ctx context.Context, ids []uuid.UUID) ([]LatestState, error) {
	const query = `SELECT ` + latestStateColumns + ` FROM latest_states WHERE device_id = ANY($1 :: uuid [ ])`

	var ss []LatestState
	err := q.db.SelectContext(ctx, &ss, query, pq.Array(ids))
	return ss, err
}

type UpsertLatestStateParams struct {
	DeviceID       uuid.UUID     `db:"device_id" json:"device_id"`
	PageCount      sql.NullInt64 `db:"page_count" json:"page_count"`
	PageCountMono  sql.NullInt64 `db:"page_count_mono" json:"page_count_mono"`
	PageCountColor sql.NullInt64 `db:"page_count_color" json:"page_count_color"`
	Supplies       Supplies      `db:"supplies" json:"supplies"`
	LastSeenAt     sql.NullTime  `db:"last_seen_at" json:"last_seen_at"`
	Online         bool          `db:"online" json:"online"`
	LowToner       bool          `db:"low_toner" json:"low_toner"`
	AgentVersion   string        `db:"agent_version" json:"agent_version"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

func (q *sqlQuerier) UpsertLatestState(ctx context.Context, arg UpsertLatestStateParams) (LatestState, error) {
	const query = `
INSERT INTO
	latest_states (
		device_id, page_count, page_count_mono, page_count_color, supplies,
		last_seen_at, online, low_toner, agent_version, updated_at
	)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (device_id) DO UPDATE SET
	page_count = EXCLUDED.page_count,
	page_count_mono = EXCLUDED.page_count_mono,
	page_count_color = EXCLUDED.page_count_color,
	supplies = EXCLUDED.supplies,
	last_seen_at = EXCLUDED.last_seen_at,
	online = EXCLUDED.online,
	low_toner = EXCLUDED.low_toner,
	agent_version = EXCLUDED.agent_version,
	updated_at = EXCLUDED.updated_at
RETURNING ` + latestStateColumns

	var s LatestState
	err := q.db.GetContext(ctx, &s, query,
		arg.DeviceID, arg.PageCount, arg.PageCountMono, arg.PageCountColor, arg.Supplies,
		arg.LastSeenAt, arg.Online, arg.LowToner, arg.AgentVersion, arg.UpdatedAt,
	)
	return s, err
}

type UpdateLatestStateCutParams struct {
	DeviceID    uuid.UUID `db:"device_id" json:"device_id"`
	LatestCutID uuid.UUID `db:"latest_cut_id" json:"latest_cut_id"`
	LastCutAt   time.Time `db:"last_cut_at" json:"last_cut_at"`
}

func (q *sqlQuerier) UpdateLatestStateCut(ctx context.Context, arg UpdateLatestStateCutParams) error {
	const query = `
UPDATE
	latest_states
SET
	latest_cut_id = $2,
	last_cut_at = $3
WHERE
	device_id = $1`

	res, err := q.db.ExecContext(ctx, query, arg.DeviceID, arg.LatestCutID, arg.LastCutAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const cutColumns = `id, device_id, tenant_id, previous_cut_id, start_counter, end_counter, total_pages,
	period_label, supplies_start, supplies_end, device_name, device_model, is_first_cut, month, year, created_at`

type InsertCutParams struct {
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

func (q *sqlQuerier) InsertCut(ctx context.Context, arg InsertCutParams) (Cut, error) {
	const query = `
INSERT INTO
	cuts (` + cutColumns + `)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + cutColumns

	var c Cut
	err := q.db.GetContext(ctx, &c, query,
		arg.ID, arg.DeviceID, arg.TenantID, arg.PreviousCutID,
		arg.StartCounter, arg.EndCounter, arg.TotalPages, arg.PeriodLabel,
		arg.SuppliesStart, arg.SuppliesEnd, arg.DeviceName, arg.DeviceModel,
		arg.IsFirstCut, arg.Month, arg.Year, arg.CreatedAt,
	)
	return c, err
}

func (q *sqlQuerier) GetCutByID(ctx context.Context, id uuid.UUID) (Cut, error) {
	const query = `SELECT ` + cutColumns + ` FROM cuts WHERE id = $1`

	var c Cut
	err := q.db.GetContext(ctx, &c, query, id)
	return c, err
}
