package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/printwatch/printwatch/printd/database"
)

func TestDocumentContent(t *testing.T) {
	t.Parallel()

	pdf := document(Input{
		Cut: database.Cut{
			StartCounter: 0,
			EndCounter:   1500,
			TotalPages:   1500,
			PeriodLabel:  "since installation",
			DeviceName:   "Front desk",
			DeviceModel:  "M404",
			IsFirstCut:   true,
			Month:        1,
			Year:         2024,
		},
		Device:      database.Device{Host: "10.0.0.5"},
		Tenant:      database.Tenant{Name: "Acme"},
		GeneratedAt: time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC),
	})
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	out := buf.String()
	for _, want := range []string{
		"Period: since installation",
		"1,500",
		"Front desk",
		"Acme",
		"No supply data reported.",
		"01/2024",
		"Generated 31/01/2024 18:00",
	} {
		require.Contains(t, out, want)
	}
}
