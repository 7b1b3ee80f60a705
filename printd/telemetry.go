package printd

import (
	"errors"
	"net/http"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printd/ingest"
	"github.com/printwatch/printwatch/printsdk"
)

func (api *API) postTelemetry(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := httpmw.Tenant(r)

	var req printsdk.TelemetryReport
	if !httpapi.Read(ctx, rw, r, &req) {
		return
	}

	result, err := api.ingestor.Ingest(ctx, tenant, req)
	if errors.Is(err, ingest.ErrHostRequired) {
		httpapi.Write(ctx, rw, http.StatusBadRequest, printsdk.Response{
			Message: "Invalid telemetry report.",
			Validations: []printsdk.ValidationError{
				{Field: "host", Detail: "Validation failed for tag \"notblank\" with value: \"" + req.Host + "\""},
			},
		})
		return
	}
	if err != nil {
		api.Logger.Error(ctx, "ingest telemetry", slog.F("tenant_id", tenant.ID), slog.Error(err))
		httpapi.InternalServerError(rw, err)
		return
	}

	if rlc := httpmw.RequestLoggerFromContext(ctx); rlc != nil {
		rlc.WithFields(map[string]any{"device_id": result.Device.ID})
	}
	httpapi.Write(ctx, rw, http.StatusOK, printsdk.TelemetryResponse{
		Device:  convertDevice(result.Device, &result.State, api.now(), api.OfflineThreshold),
		Created: result.Created,
	})
}
