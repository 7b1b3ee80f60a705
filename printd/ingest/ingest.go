// Package ingest stores agent telemetry. Each report registers or updates
// the device it describes and replaces that device's latest state.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbtime"
	"github.com/printwatch/printwatch/printd/devicestatus"
	"github.com/printwatch/printwatch/printsdk"
)

// LowTonerPercent is the fill level at or below which a supply counts as low.
const LowTonerPercent = 20

var ErrHostRequired = xerrors.New("host is required")

type Options struct {
	Logger   slog.Logger
	Database database.Store
	// Clock defaults to the real clock.
	Clock   quartz.Clock
	Metrics *Metrics
}

type Ingestor struct {
	logger  slog.Logger
	db      database.Store
	clock   quartz.Clock
	metrics *Metrics
}

func New(opts Options) *Ingestor {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Ingestor{
		logger:  opts.Logger,
		db:      opts.Database,
		clock:   opts.Clock,
		metrics: opts.Metrics,
	}
}

type Result struct {
	Device database.Device
	State  database.LatestState
	// Created is true when the report registered a new device.
	Created bool
}

// Ingest applies a report for tenant. The latest state is overwritten
// regardless of the report's timestamp, so a late report replaces newer
// data.
func (i *Ingestor) Ingest(ctx context.Context, tenant database.Tenant, req printsdk.TelemetryReport) (Result, error) {
	req.Host = strings.TrimSpace(req.Host)
	req.Serial = strings.TrimSpace(req.Serial)
	if req.Host == "" {
		i.metrics.recordIngested(resultInvalid)
		return Result{}, ErrHostRequired
	}

	logger := i.logger.With(slog.F("tenant_id", tenant.ID), slog.F("host", req.Host))
	now := dbtime.Now(i.clock)

	device, created, err := i.resolveDevice(ctx, tenant, req, now)
	if err != nil {
		i.metrics.recordIngested(resultError)
		return Result{}, xerrors.Errorf("resolve device: %w", err)
	}
	if created {
		i.metrics.recordDeviceCreated()
		logger.Info(ctx, "registered new device", slog.F("device_id", device.ID))
	}

	lastSeen := sql.NullTime{Time: now, Valid: true}
	if req.Timestamp != "" {
		ts, err := devicestatus.ParseTimestamp(string(req.Timestamp))
		if err != nil {
			// Stored as unknown, which reads as offline.
			logger.Warn(ctx, "unparsable agent timestamp", slog.F("timestamp", req.Timestamp), slog.Error(err))
			lastSeen = sql.NullTime{}
		} else {
			lastSeen = sql.NullTime{Time: dbtime.Time(ts), Valid: true}
		}
	}

	supplies := Supplies(req.Supplies)
	params := database.UpsertLatestStateParams{
		DeviceID:       device.ID,
		PageCount:      nullCount(req.PageCount),
		PageCountMono:  nullCount(req.PageCountMono),
		PageCountColor: nullCount(req.PageCountColor),
		Supplies:       supplies,
		LastSeenAt:     lastSeen,
		Online:         Reachable(req),
		LowToner:       LowToner(supplies),
		AgentVersion:   req.AgentVersion,
		UpdatedAt:      now,
	}

	var state database.LatestState
	err = i.db.InTx(func(tx database.Store) error {
		if !created {
			device, err = tx.UpdateDeviceIdentity(ctx, identityUpdate(device, req, now))
			if err != nil {
				return xerrors.Errorf("update device identity: %w", err)
			}
		}
		state, err = tx.UpsertLatestState(ctx, params)
		if err != nil {
			return xerrors.Errorf("upsert latest state: %w", err)
		}
		return nil
	}, nil)
	if err != nil {
		i.metrics.recordIngested(resultError)
		return Result{}, err
	}

	i.metrics.recordIngested(resultSuccess)
	logger.Debug(ctx, "ingested telemetry",
		slog.F("device_id", device.ID),
		slog.F("reachable", state.Online),
		slog.F("low_toner", state.LowToner),
	)
	return Result{Device: device, State: state, Created: created}, nil
}

// resolveDevice finds the device a report describes, creating it on first
// sight. A serial identifies a device on its own; the host is only used for
// devices that never reported one.
func (i *Ingestor) resolveDevice(ctx context.Context, tenant database.Tenant, req printsdk.TelemetryReport, now time.Time) (database.Device, bool, error) {
	device, err := i.lookupDevice(ctx, tenant.ID, req)
	if err == nil {
		return device, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return database.Device{}, false, err
	}

	city := req.City
	if city == "" {
		city = tenant.City
	}
	device, err = i.db.InsertDevice(ctx, database.InsertDeviceParams{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		Host:        req.Host,
		Serial:      nullString(req.Serial),
		Name:        req.Name,
		Model:       req.Model,
		Description: req.Description,
		City:        city,
		CreatedAt:   now,
	})
	if database.IsUniqueViolation(err, database.UniqueDevicesTenantSerial, database.UniqueDevicesTenantHost) {
		// Another report for the same device won the insert.
		device, err = i.lookupDevice(ctx, tenant.ID, req)
		if err != nil {
			return database.Device{}, false, xerrors.Errorf("get device after conflict: %w", err)
		}
		return device, false, nil
	}
	if err != nil {
		return database.Device{}, false, xerrors.Errorf("insert device: %w", err)
	}
	return device, true, nil
}

func (i *Ingestor) lookupDevice(ctx context.Context, tenantID uuid.UUID, req printsdk.TelemetryReport) (database.Device, error) {
	if req.Serial != "" {
		return i.db.GetDeviceByTenantAndSerial(ctx, database.GetDeviceByTenantAndSerialParams{
			TenantID: tenantID,
			Serial:   req.Serial,
		})
	}
	return i.db.GetDeviceByTenantAndHost(ctx, database.GetDeviceByTenantAndHostParams{
		TenantID: tenantID,
		Host:     req.Host,
	})
}

// identityUpdate applies the report's identity on top of the stored device.
// Fields the agent left empty keep their stored value.
func identityUpdate(device database.Device, req printsdk.TelemetryReport, now time.Time) database.UpdateDeviceIdentityParams {
	pick := func(reported, stored string) string {
		if reported != "" {
			return reported
		}
		return stored
	}
	return database.UpdateDeviceIdentityParams{
		ID:          device.ID,
		Host:        req.Host,
		Serial:      device.Serial,
		Name:        pick(req.Name, device.Name),
		Model:       pick(req.Model, device.Model),
		Description: pick(req.Description, device.Description),
		City:        pick(req.City, device.City),
		UpdatedAt:   now,
	}
}

// Reachable reports whether the agent could talk to the printer at all:
// a usable page count, any supply, or any identity string is proof.
func Reachable(req printsdk.TelemetryReport) bool {
	if _, ok := req.PageCount.Count(); ok || len(req.Supplies) > 0 {
		return true
	}
	for _, s := range []string{req.Name, req.Model, req.Description, req.Serial} {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// LowToner reports whether any supply is at or below LowTonerPercent.
// Supplies without a numeric level are ignored.
func LowToner(supplies database.Supplies) bool {
	for _, s := range supplies {
		pct, ok := s.Percent()
		if ok && pct <= LowTonerPercent {
			return true
		}
	}
	return false
}

// Supplies converts reported supplies to their stored form, keeping order.
func Supplies(reported []printsdk.SupplyReport) database.Supplies {
	supplies := make(database.Supplies, 0, len(reported))
	for _, r := range reported {
		supplies = append(supplies, database.Supply{
			Name:  strings.TrimSpace(r.Name),
			Level: r.Level.Ptr(),
			Max:   r.Max.Ptr(),
		})
	}
	return supplies
}

func nullCount(n printsdk.Number) sql.NullInt64 {
	v, ok := n.Count()
	return sql.NullInt64{Int64: v, Valid: ok}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
