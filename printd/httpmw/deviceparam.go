package httpmw

import (
	"context"
	"net/http"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/httpapi"
)

type deviceParamContextKey struct{}

// DeviceParam returns the device from the ExtractDeviceParam handler.
func DeviceParam(r *http.Request) database.Device {
	device, ok := r.Context().Value(deviceParamContextKey{}).(database.Device)
	if !ok {
		panic("developer error: device param middleware not provided")
	}
	return device
}

// ExtractDeviceParam grabs a device from the "device" URL parameter. Devices
// of other tenants are reported as not found. It must run after
// ExtractTenant.
func ExtractDeviceParam(db database.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			deviceID, ok := parseUUID(rw, r, "device")
			if !ok {
				return
			}
			device, err := db.GetDeviceByID(ctx, deviceID)
			if httpapi.Is404Error(err) {
				httpapi.ResourceNotFound(rw)
				return
			}
			if err != nil {
				httpapi.InternalServerError(rw, err)
				return
			}
			if device.TenantID != Tenant(r).ID {
				httpapi.ResourceNotFound(rw)
				return
			}

			ctx = context.WithValue(ctx, deviceParamContextKey{}, device)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
