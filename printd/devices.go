package printd

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printsdk"
)

func (api *API) devices(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := httpmw.Tenant(r)
	city := httpapi.NewQueryParamParser().String(r.URL.Query(), "", "city")

	devices, err := api.Database.GetDevicesByTenantID(ctx, database.GetDevicesByTenantIDParams{
		TenantID: tenant.ID,
		City:     city,
	})
	if err != nil {
		httpapi.InternalServerError(rw, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(devices))
	for _, device := range devices {
		ids = append(ids, device.ID)
	}
	states, err := api.Database.GetLatestStatesByDeviceIDs(ctx, ids)
	if err != nil {
		httpapi.InternalServerError(rw, err)
		return
	}
	byDevice := make(map[uuid.UUID]database.LatestState, len(states))
	for _, state := range states {
		byDevice[state.DeviceID] = state
	}

	now := api.now()
	converted := make([]printsdk.Device, 0, len(devices))
	for _, device := range devices {
		var state *database.LatestState
		if s, ok := byDevice[device.ID]; ok {
			state = &s
		}
		converted = append(converted, convertDevice(device, state, now, api.OfflineThreshold))
	}
	httpapi.Write(ctx, rw, http.StatusOK, converted)
}

func (api *API) device(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := httpmw.DeviceParam(r)

	var state *database.LatestState
	latest, err := api.Database.GetLatestStateByDeviceID(ctx, device.ID)
	switch {
	case err == nil:
		state = &latest
	case errors.Is(err, sql.ErrNoRows):
	default:
		httpapi.InternalServerError(rw, err)
		return
	}

	httpapi.Write(ctx, rw, http.StatusOK, convertDevice(device, state, api.now(), api.OfflineThreshold))
}
