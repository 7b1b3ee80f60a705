package printd

import (
	"time"

	"github.com/google/uuid"

	"github.com/printwatch/printwatch/printd/database"
	"github.com/printwatch/printwatch/printd/devicestatus"
	"github.com/printwatch/printwatch/printsdk"
)

// convertDevice renders a device with its state as of now. state may be nil
// for devices that never reported.
func convertDevice(device database.Device, state *database.LatestState, now time.Time, threshold time.Duration) printsdk.Device {
	converted := printsdk.Device{
		ID:          device.ID,
		TenantID:    device.TenantID,
		Host:        device.Host,
		Serial:      device.Serial.String,
		Name:        device.Name,
		Model:       device.Model,
		Description: device.Description,
		City:        device.City,
		CreatedAt:   device.CreatedAt,
		UpdatedAt:   device.UpdatedAt,
		Online:      devicestatus.Online(state, now, threshold),
	}
	if state != nil {
		converted.State = convertState(*state)
	}
	return converted
}

func convertState(state database.LatestState) *printsdk.DeviceState {
	converted := &printsdk.DeviceState{
		PageCount:      nullInt64Ptr(state.PageCount.Int64, state.PageCount.Valid),
		PageCountMono:  nullInt64Ptr(state.PageCountMono.Int64, state.PageCountMono.Valid),
		PageCountColor: nullInt64Ptr(state.PageCountColor.Int64, state.PageCountColor.Valid),
		Supplies:       convertSupplies(state.Supplies),
		Reachable:      state.Online,
		LowToner:       state.LowToner,
		AgentVersion:   state.AgentVersion,
		UpdatedAt:      state.UpdatedAt,
	}
	if state.LastSeenAt.Valid {
		converted.LastSeenAt = &state.LastSeenAt.Time
	}
	if state.LatestCutID.Valid {
		converted.LatestCutID = &state.LatestCutID.UUID
	}
	if state.LastCutAt.Valid {
		converted.LastCutAt = &state.LastCutAt.Time
	}
	return converted
}

func convertSupplies(supplies database.Supplies) []printsdk.Supply {
	converted := make([]printsdk.Supply, 0, len(supplies))
	for _, s := range supplies {
		converted = append(converted, printsdk.Supply{
			Name:  s.Name,
			Level: s.Level,
			Max:   s.Max,
		})
	}
	return converted
}

func convertCut(cut database.Cut) printsdk.Cut {
	var previous *uuid.UUID
	if cut.PreviousCutID.Valid {
		previous = &cut.PreviousCutID.UUID
	}
	return printsdk.Cut{
		ID:            cut.ID,
		DeviceID:      cut.DeviceID,
		TenantID:      cut.TenantID,
		PreviousCutID: previous,
		StartCounter:  cut.StartCounter,
		EndCounter:    cut.EndCounter,
		TotalPages:    cut.TotalPages,
		PeriodLabel:   cut.PeriodLabel,
		SuppliesStart: convertSupplies(cut.SuppliesStart),
		SuppliesEnd:   convertSupplies(cut.SuppliesEnd),
		DeviceName:    cut.DeviceName,
		DeviceModel:   cut.DeviceModel,
		IsFirstCut:    cut.IsFirstCut,
		Month:         int(cut.Month),
		Year:          int(cut.Year),
		CreatedAt:     cut.CreatedAt,
	}
}

func convertCuts(cuts []database.Cut) []printsdk.Cut {
	converted := make([]printsdk.Cut, 0, len(cuts))
	for _, cut := range cuts {
		converted = append(converted, convertCut(cut))
	}
	return converted
}

func nullInt64Ptr(v int64, valid bool) *int64 {
	if !valid {
		return nil
	}
	return &v
}
