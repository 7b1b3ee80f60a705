package database

import (
	"context"

	"github.com/google/uuid"
)

type querier interface {
	DeleteTenantByID(ctx context.Context, id uuid.UUID) error
	GetCutByID(ctx context.Context, id uuid.UUID) (Cut, error)
	GetDeviceByID(ctx context.Context, id uuid.UUID) (Device, error)
	GetDeviceByTenantAndHost(ctx context.Context, arg GetDeviceByTenantAndHostParams) (Device, error)
	GetDeviceByTenantAndSerial(ctx context.Context, arg GetDeviceByTenantAndSerialParams) (Device, error)
	GetDevicesByTenantID(ctx context.Context, arg GetDevicesByTenantIDParams) ([]Device, error)
	GetLatestStateByDeviceID(ctx context.Context, deviceID uuid.UUID) (LatestState, error)
	// GetLatestStateByDeviceIDForUpdate locks the row until the surrounding
	// transaction ends.
	GetLatestStateByDeviceIDForUpdate(ctx context.Context, deviceID uuid.UUID) (LatestState, error)
	GetLatestStatesByDeviceIDs(ctx context.Context, ids []uuid.UUID) ([]LatestState, error)
	GetTenantByID(ctx context.Context, id uuid.UUID) (Tenant, error)
	GetTenants(ctx context.Context) ([]Tenant, error)
	InsertCut(ctx context.Context, arg InsertCutParams) (Cut, error)
	InsertDevice(ctx context.Context, arg InsertDeviceParams) (Device, error)
	InsertTenant(ctx context.Context, arg InsertTenantParams) (Tenant, error)
	UpdateDeviceIdentity(ctx context.Context, arg UpdateDeviceIdentityParams) (Device, error)
	UpdateLatestStateCut(ctx context.Context, arg UpdateLatestStateCutParams) error
	// UpsertLatestState replaces the telemetry columns of a device's state.
	// The cut pointer columns are left untouched on conflict.
	UpsertLatestState(ctx context.Context, arg UpsertLatestStateParams) (LatestState, error)
}
