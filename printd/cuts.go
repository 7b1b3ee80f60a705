package printd

import (
	"errors"
	"net/http"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/cutledger"
	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printsdk"
)

const (
	defaultCutHistory = 25
	maxCutHistory     = 100
)

func (api *API) postDeviceCut(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := httpmw.DeviceParam(r)

	cut, err := api.ledger.Register(ctx, device.ID)
	switch {
	case errors.Is(err, cutledger.ErrDeviceNotFound):
		httpapi.ResourceNotFound(rw)
		return
	case errors.Is(err, cutledger.ErrNoLatestState):
		httpapi.Write(ctx, rw, http.StatusNotFound, printsdk.Response{
			Message: "Device has not reported telemetry yet.",
			Detail:  "A cut can only be registered once the device has a latest state.",
		})
		return
	case err != nil:
		api.Logger.Error(ctx, "register cut", slog.F("device_id", device.ID), slog.Error(err))
		httpapi.InternalServerError(rw, err)
		return
	}

	if rlc := httpmw.RequestLoggerFromContext(ctx); rlc != nil {
		rlc.WithFields(map[string]any{"device_id": device.ID, "cut_id": cut.ID})
	}
	httpapi.Write(ctx, rw, http.StatusCreated, convertCut(cut))
}

func (api *API) deviceCuts(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	device := httpmw.DeviceParam(r)

	parser := httpapi.NewQueryParamParser()
	limit := parser.PositiveInt(r.URL.Query(), defaultCutHistory, maxCutHistory, "limit")
	if len(parser.Errors) > 0 {
		httpapi.Write(ctx, rw, http.StatusBadRequest, printsdk.Response{
			Message:     "Query parameters have invalid values.",
			Validations: parser.Errors,
		})
		return
	}

	cuts, err := api.ledger.History(ctx, device.ID, limit)
	if errors.Is(err, cutledger.ErrDeviceNotFound) {
		httpapi.ResourceNotFound(rw)
		return
	}
	if err != nil {
		httpapi.InternalServerError(rw, err)
		return
	}
	httpapi.Write(ctx, rw, http.StatusOK, convertCuts(cuts))
}

func (api *API) cut(rw http.ResponseWriter, r *http.Request) {
	httpapi.Write(r.Context(), rw, http.StatusOK, convertCut(httpmw.CutParam(r)))
}
