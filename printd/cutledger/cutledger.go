// Package cutledger records billing cuts. Each cut closes the period opened
// by the device's previous cut, and the device's latest state points at the
// newest one, forming a backward chain.
package cutledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/cutcalc"
	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/database/dbtime"
)

var (
	ErrDeviceNotFound = xerrors.New("device not found")
	ErrNoLatestState  = xerrors.New("device has not reported telemetry")
)

type Options struct {
	Logger   slog.Logger
	Database database.Store
	// Clock defaults to the real clock.
	Clock quartz.Clock
	// Location decides the calendar month of a cut and the dates in its
	// period label. It defaults to UTC.
	Location *time.Location
	Metrics  *Metrics
}

type Ledger struct {
	logger   slog.Logger
	db       database.Store
	clock    quartz.Clock
	location *time.Location
	metrics  *Metrics
	locks    *deviceLocks
}

func New(opts Options) *Ledger {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Ledger{
		logger:   opts.Logger,
		db:       opts.Database,
		clock:    opts.Clock,
		location: opts.Location,
		metrics:  opts.Metrics,
		locks:    newDeviceLocks(),
	}
}

// Register closes the device's current billing period and returns the new
// cut. Calls are not idempotent: every successful call appends a cut.
// Concurrent calls for the same device are applied one after the other.
func (l *Ledger) Register(ctx context.Context, deviceID uuid.UUID) (database.Cut, error) {
	unlock := l.locks.lock(deviceID)
	defer unlock()

	var cut database.Cut
	err := l.db.InTx(func(tx database.Store) error {
		device, err := tx.GetDeviceByID(ctx, deviceID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return xerrors.Errorf("get device: %w", err)
		}

		// Holding the row lock keeps other processes from reading the same
		// previous cut until this transaction commits.
		latest, err := tx.GetLatestStateByDeviceIDForUpdate(ctx, deviceID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoLatestState
		}
		if err != nil {
			return xerrors.Errorf("get latest state: %w", err)
		}

		var previous *database.Cut
		if latest.LatestCutID.Valid {
			prev, err := tx.GetCutByID(ctx, latest.LatestCutID.UUID)
			if err != nil {
				return xerrors.Errorf("get previous cut %s: %w", latest.LatestCutID.UUID, err)
			}
			previous = &prev
		}

		now := dbtime.Now(l.clock)
		local := now.In(l.location)
		result := cutcalc.Calculate(previous, latest, local)

		suppliesStart := database.Supplies{}
		previousID := uuid.NullUUID{}
		if previous != nil {
			suppliesStart = previous.SuppliesEnd
			previousID = uuid.NullUUID{UUID: previous.ID, Valid: true}
		}

		cut, err = tx.InsertCut(ctx, database.InsertCutParams{
			ID:            uuid.New(),
			DeviceID:      device.ID,
			TenantID:      device.TenantID,
			PreviousCutID: previousID,
			StartCounter:  result.StartCounter,
			EndCounter:    result.EndCounter,
			TotalPages:    result.TotalPages,
			PeriodLabel:   result.PeriodLabel,
			SuppliesStart: suppliesStart,
			SuppliesEnd:   latest.Supplies,
			DeviceName:    device.DisplayName(),
			DeviceModel:   device.Model,
			IsFirstCut:    result.IsFirstCut,
			Month:         int32(local.Month()),
			Year:          int32(local.Year()),
			CreatedAt:     now,
		})
		if err != nil {
			return xerrors.Errorf("insert cut: %w", err)
		}

		err = tx.UpdateLatestStateCut(ctx, database.UpdateLatestStateCutParams{
			DeviceID:    device.ID,
			LatestCutID: cut.ID,
			LastCutAt:   now,
		})
		if err != nil {
			return xerrors.Errorf("point latest state at cut: %w", err)
		}
		return nil
	}, nil)
	switch {
	case errors.Is(err, ErrDeviceNotFound):
		l.metrics.record(resultDeviceNotFound, 0)
		return database.Cut{}, ErrDeviceNotFound
	case errors.Is(err, ErrNoLatestState):
		l.metrics.record(resultNoLatestState, 0)
		return database.Cut{}, ErrNoLatestState
	case err != nil:
		l.metrics.record(resultError, 0)
		return database.Cut{}, xerrors.Errorf("register cut: %w", err)
	}

	l.metrics.record(resultSuccess, cut.TotalPages)
	l.logger.Info(ctx, "registered cut",
		slog.F("device_id", deviceID),
		slog.F("cut_id", cut.ID),
		slog.F("total_pages", cut.TotalPages),
		slog.F("first_cut", cut.IsFirstCut),
	)
	return cut, nil
}

// History returns up to limit cuts for the device, newest first, by
// following each cut's link to the one before it.
func (l *Ledger) History(ctx context.Context, deviceID uuid.UUID, limit int) ([]database.Cut, error) {
	cuts := make([]database.Cut, 0)
	if limit <= 0 {
		return cuts, nil
	}

	latest, err := l.db.GetLatestStateByDeviceID(ctx, deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = l.db.GetDeviceByID(ctx, deviceID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		if err != nil {
			return nil, xerrors.Errorf("get device: %w", err)
		}
		return cuts, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("get latest state: %w", err)
	}

	next := latest.LatestCutID
	for next.Valid && len(cuts) < limit {
		cut, err := l.db.GetCutByID(ctx, next.UUID)
		if err != nil {
			return nil, xerrors.Errorf("get cut %s: %w", next.UUID, err)
		}
		cuts = append(cuts, cut)
		next = cut.PreviousCutID
	}
	return cuts, nil
}
