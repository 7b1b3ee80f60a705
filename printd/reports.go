package printd

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"cdr.dev/slog/v3"

	"github.com/printwatch/printwatch/printd/httpapi"
	"github.com/printwatch/printwatch/printd/httpmw"
	"github.com/printwatch/printwatch/printd/report"
)

// cutReport renders the cut as a PDF. Host and serial come from the device
// as it is now; the name and model from the cut snapshot.
func (api *API) cutReport(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cut := httpmw.CutParam(r)
	tenant := httpmw.Tenant(r)

	device, err := api.Database.GetDeviceByID(ctx, cut.DeviceID)
	if httpapi.Is404Error(err) {
		httpapi.ResourceNotFound(rw)
		return
	}
	if err != nil {
		httpapi.InternalServerError(rw, err)
		return
	}

	var buf bytes.Buffer
	err = report.Render(&buf, report.Input{
		Cut:         cut,
		Device:      device,
		Tenant:      tenant,
		GeneratedAt: api.now().In(api.Location),
	})
	if err != nil {
		api.Logger.Error(ctx, "render cut report", slog.F("cut_id", cut.ID), slog.Error(err))
		httpapi.InternalServerError(rw, err)
		return
	}

	rw.Header().Set("Content-Type", "application/pdf")
	rw.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reportFilename(cut.Year, cut.Month, device.DisplayName())))
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(buf.Bytes())
}

func reportFilename(year, month int32, device string) string {
	safe := make([]rune, 0, len(device))
	for _, r := range device {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		default:
			safe = append(safe, '-')
		}
	}
	return fmt.Sprintf("cut-%s-%04d-%02d.pdf", string(safe), year, month)
}
