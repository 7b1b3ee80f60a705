package databasefake

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/printwatch/printwatch/printd/database"
)

// New returns an in-memory fake of the database.
func New() database.Store {
	return &fakeQuerier{
		mutex: &sync.RWMutex{},
		data: &data{
			tenants:      make([]database.Tenant, 0),
			devices:      make([]database.Device, 0),
			latestStates: make([]database.LatestState, 0),
			cuts:         make([]database.Cut, 0),
		},
	}
}

type rwMutex interface {
	Lock()
	RLock()
	Unlock()
	RUnlock()
}

// inTxMutex is a no op, since inside a transaction we are already locked.
type inTxMutex struct{}

func (inTxMutex) Lock()    {}
func (inTxMutex) RLock()   {}
func (inTxMutex) Unlock()  {}
func (inTxMutex) RUnlock() {}

// fakeQuerier replicates database functionality to enable quick testing.
type fakeQuerier struct {
	mutex rwMutex
	*data
}

type data struct {
	tenants      []database.Tenant
	devices      []database.Device
	latestStates []database.LatestState
	cuts         []database.Cut
}

func (d *data) clone() data {
	return data{
		tenants:      slices.Clone(d.tenants),
		devices:      slices.Clone(d.devices),
		latestStates: slices.Clone(d.latestStates),
		cuts:         slices.Clone(d.cuts),
	}
}

func (*fakeQuerier) Ping(_ context.Context) (time.Duration, error) {
	return 0, nil
}

// InTx holds the write lock for the whole function, which also makes
// row-locking reads trivially exclusive. The data is restored if fn fails.
func (q *fakeQuerier) InTx(fn func(database.Store) error, _ *database.TxOptions) error {
	if _, nested := q.mutex.(inTxMutex); nested {
		return fn(q)
	}

	q.mutex.Lock()
	defer q.mutex.Unlock()

	snapshot := q.data.clone()
	err := fn(&fakeQuerier{mutex: inTxMutex{}, data: q.data})
	if err != nil {
		*q.data = snapshot
	}
	return err
}

func uniqueViolation(constraint database.UniqueConstraint) error {
	return &pq.Error{
		Code:       "23505",
		Message:    "duplicate key value violates unique constraint",
		Constraint: string(constraint),
	}
}

func (q *fakeQuerier) InsertTenant(_ context.Context, arg database.InsertTenantParams) (database.Tenant, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, tenant := range q.tenants {
		if strings.EqualFold(tenant.Name, arg.Name) {
			return database.Tenant{}, uniqueViolation(database.UniqueTenantsName)
		}
	}

	tenant := database.Tenant{
		ID:           arg.ID,
		Name:         arg.Name,
		City:         arg.City,
		HashedSecret: slices.Clone(arg.HashedSecret),
		CreatedAt:    arg.CreatedAt,
	}
	q.tenants = append(q.tenants, tenant)
	return tenant, nil
}

func (q *fakeQuerier) GetTenantByID(_ context.Context, id uuid.UUID) (database.Tenant, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, tenant := range q.tenants {
		if tenant.ID == id {
			return tenant, nil
		}
	}
	return database.Tenant{}, sql.ErrNoRows
}

func (q *fakeQuerier) GetTenants(_ context.Context) ([]database.Tenant, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	tenants := slices.Clone(q.tenants)
	sort.Slice(tenants, func(i, j int) bool {
		return strings.ToLower(tenants[i].Name) < strings.ToLower(tenants[j].Name)
	})
	return tenants, nil
}

func (q *fakeQuerier) DeleteTenantByID(_ context.Context, id uuid.UUID) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	index := slices.IndexFunc(q.tenants, func(t database.Tenant) bool { return t.ID == id })
	if index < 0 {
		return sql.ErrNoRows
	}
	q.tenants = slices.Delete(q.tenants, index, index+1)

	owned := map[uuid.UUID]struct{}{}
	q.devices = slices.DeleteFunc(q.devices, func(d database.Device) bool {
		if d.TenantID != id {
			return false
		}
		owned[d.ID] = struct{}{}
		return true
	})
	q.latestStates = slices.DeleteFunc(q.latestStates, func(s database.LatestState) bool {
		_, ok := owned[s.DeviceID]
		return ok
	})
	q.cuts = slices.DeleteFunc(q.cuts, func(c database.Cut) bool {
		return c.TenantID == id
	})
	return nil
}

func (q *fakeQuerier) InsertDevice(_ context.Context, arg database.InsertDeviceParams) (database.Device, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, device := range q.devices {
		if device.TenantID != arg.TenantID {
			continue
		}
		if arg.Serial.Valid && device.Serial.Valid && device.Serial.String == arg.Serial.String {
			return database.Device{}, uniqueViolation(database.UniqueDevicesTenantSerial)
		}
		if !arg.Serial.Valid && !device.Serial.Valid && device.Host == arg.Host {
			return database.Device{}, uniqueViolation(database.UniqueDevicesTenantHost)
		}
	}

	device := database.Device{
		ID:          arg.ID,
		TenantID:    arg.TenantID,
		Host:        arg.Host,
		Serial:      arg.Serial,
		Name:        arg.Name,
		Model:       arg.Model,
		Description: arg.Description,
		City:        arg.City,
		CreatedAt:   arg.CreatedAt,
		UpdatedAt:   arg.CreatedAt,
	}
	q.devices = append(q.devices, device)
	return device, nil
}

func (q *fakeQuerier) GetDeviceByID(_ context.Context, id uuid.UUID) (database.Device, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, device := range q.devices {
		if device.ID == id {
			return device, nil
		}
	}
	return database.Device{}, sql.ErrNoRows
}

func (q *fakeQuerier) GetDeviceByTenantAndSerial(_ context.Context, arg database.GetDeviceByTenantAndSerialParams) (database.Device, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, device := range q.devices {
		if device.TenantID == arg.TenantID && device.Serial.Valid && device.Serial.String == arg.Serial {
			return device, nil
		}
	}
	return database.Device{}, sql.ErrNoRows
}

func (q *fakeQuerier) GetDeviceByTenantAndHost(_ context.Context, arg database.GetDeviceByTenantAndHostParams) (database.Device, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, device := range q.devices {
		if device.TenantID == arg.TenantID && !device.Serial.Valid && device.Host == arg.Host {
			return device, nil
		}
	}
	return database.Device{}, sql.ErrNoRows
}

func (q *fakeQuerier) GetDevicesByTenantID(_ context.Context, arg database.GetDevicesByTenantIDParams) ([]database.Device, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	devices := make([]database.Device, 0)
	for _, device := range q.devices {
		if device.TenantID != arg.TenantID {
			continue
		}
		if arg.City != "" && !strings.EqualFold(device.City, arg.City) {
			continue
		}
		devices = append(devices, device)
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].CreatedAt.Before(devices[j].CreatedAt)
	})
	return devices, nil
}

func (q *fakeQuerier) UpdateDeviceIdentity(_ context.Context, arg database.UpdateDeviceIdentityParams) (database.Device, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for index, device := range q.devices {
		if device.ID != arg.ID {
			continue
		}
		device.Host = arg.Host
		device.Serial = arg.Serial
		device.Name = arg.Name
		device.Model = arg.Model
		device.Description = arg.Description
		device.City = arg.City
		device.UpdatedAt = arg.UpdatedAt
		q.devices[index] = device
		return device, nil
	}
	return database.Device{}, sql.ErrNoRows
}

func (q *fakeQuerier) getLatestStateNoLock(deviceID uuid.UUID) (database.LatestState, error) {
	for _, state := range q.latestStates {
		if state.DeviceID == deviceID {
			state.Supplies = slices.Clone(state.Supplies)
			return state, nil
		}
	}
	return database.LatestState{}, sql.ErrNoRows
}

func (q *fakeQuerier) GetLatestStateByDeviceID(_ context.Context, deviceID uuid.UUID) (database.LatestState, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return q.getLatestStateNoLock(deviceID)
}

func (q *fakeQuerier) GetLatestStateByDeviceIDForUpdate(_ context.Context, deviceID uuid.UUID) (database.LatestState, error) {
	// Row locks are implied by the transaction-wide write lock.
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return q.getLatestStateNoLock(deviceID)
}

func (q *fakeQuerier) GetLatestStatesByDeviceIDs(_ context.Context, ids []uuid.UUID) ([]database.LatestState, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	states := make([]database.LatestState, 0)
	for _, state := range q.latestStates {
		if slices.Contains(ids, state.DeviceID) {
			state.Supplies = slices.Clone(state.Supplies)
			states = append(states, state)
		}
	}
	return states, nil
}

func (q *fakeQuerier) UpsertLatestState(_ context.Context, arg database.UpsertLatestStateParams) (database.LatestState, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	supplies := slices.Clone(arg.Supplies)
	if supplies == nil {
		supplies = database.Supplies{}
	}
	state := database.LatestState{
		DeviceID:       arg.DeviceID,
		PageCount:      arg.PageCount,
		PageCountMono:  arg.PageCountMono,
		PageCountColor: arg.PageCountColor,
		Supplies:       supplies,
		LastSeenAt:     arg.LastSeenAt,
		Online:         arg.Online,
		LowToner:       arg.LowToner,
		AgentVersion:   arg.AgentVersion,
		UpdatedAt:      arg.UpdatedAt,
	}
	for index, existing := range q.latestStates {
		if existing.DeviceID != arg.DeviceID {
			continue
		}
		state.LatestCutID = existing.LatestCutID
		state.LastCutAt = existing.LastCutAt
		q.latestStates[index] = state
		return state, nil
	}
	q.latestStates = append(q.latestStates, state)
	return state, nil
}

func (q *fakeQuerier) UpdateLatestStateCut(_ context.Context, arg database.UpdateLatestStateCutParams) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for index, state := range q.latestStates {
		if state.DeviceID != arg.DeviceID {
			continue
		}
		state.LatestCutID = uuid.NullUUID{UUID: arg.LatestCutID, Valid: true}
		state.LastCutAt = sql.NullTime{Time: arg.LastCutAt, Valid: true}
		q.latestStates[index] = state
		return nil
	}
	return sql.ErrNoRows
}

func (q *fakeQuerier) InsertCut(_ context.Context, arg database.InsertCutParams) (database.Cut, error) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	start := slices.Clone(arg.SuppliesStart)
	if start == nil {
		start = database.Supplies{}
	}
	end := slices.Clone(arg.SuppliesEnd)
	if end == nil {
		end = database.Supplies{}
	}
	cut := database.Cut{
		ID:            arg.ID,
		DeviceID:      arg.DeviceID,
		TenantID:      arg.TenantID,
		PreviousCutID: arg.PreviousCutID,
		StartCounter:  arg.StartCounter,
		EndCounter:    arg.EndCounter,
		TotalPages:    arg.TotalPages,
		PeriodLabel:   arg.PeriodLabel,
		SuppliesStart: start,
		SuppliesEnd:   end,
		DeviceName:    arg.DeviceName,
		DeviceModel:   arg.DeviceModel,
		IsFirstCut:    arg.IsFirstCut,
		Month:         arg.Month,
		Year:          arg.Year,
		CreatedAt:     arg.CreatedAt,
	}
	q.cuts = append(q.cuts, cut)
	return cut, nil
}

func (q *fakeQuerier) GetCutByID(_ context.Context, id uuid.UUID) (database.Cut, error) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	for _, cut := range q.cuts {
		if cut.ID == id {
			return cut, nil
		}
	}
	return database.Cut{}, sql.ErrNoRows
}
