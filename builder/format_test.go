package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name  string
		meta  datamodel.FieldMeta
		value any
		want  string
	}{
		{"count", datamodel.FieldMeta{Kind: sdc4.KindCount}, 42, "42"},
		{"quantity", datamodel.FieldMeta{Kind: sdc4.KindQuantity}, 12.5, "12.5"},
		{"bool true", datamodel.FieldMeta{Kind: sdc4.KindBoolean}, true, "true"},
		{"bool false", datamodel.FieldMeta{Kind: sdc4.KindBoolean}, false, "false"},
		{"bool string", datamodel.FieldMeta{Kind: sdc4.KindBoolean}, "yes", "true"},
		{"bool other type", datamodel.FieldMeta{Kind: sdc4.KindBoolean}, 1.0, "false"},
		{"string escaped", datamodel.FieldMeta{Kind: sdc4.KindString}, `<x> & 'y'`, "&lt;x&gt; &amp; &apos;y&apos;"},
		{
			"temporal date truncates",
			datamodel.FieldMeta{Kind: sdc4.KindTemporal, TemporalTypes: []sdc4.TemporalSubtype{sdc4.TemporalDate}},
			"2024-03-15T10:30:00",
			"2024-03-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.meta, tt.value))
		})
	}
}

func TestFormatTemporal(t *testing.T) {
	stamp := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		value   any
		subtype sdc4.TemporalSubtype
		want    string
	}{
		{"time.Time date", stamp, sdc4.TemporalDate, "2024-03-15"},
		{"time.Time time", stamp, sdc4.TemporalTime, "10:30:45"},
		{"time.Time datetime", stamp, sdc4.TemporalDateTime, "2024-03-15T10:30:45"},
		{"time.Time year", stamp, sdc4.TemporalYear, "2024"},
		{"time.Time month", stamp, sdc4.TemporalMonth, "--03"},
		{"time.Time day", stamp, sdc4.TemporalDay, "---15"},
		{"time.Time year-month", stamp, sdc4.TemporalYearMonth, "2024-03"},
		{"time.Time month-day", stamp, sdc4.TemporalMonthDay, "--03-15"},
		{"duration", 90*time.Minute + 5*time.Second, sdc4.TemporalDuration, "PT1H30M5S"},
		{"string date from T datetime", "2024-03-15T10:30:00", sdc4.TemporalDate, "2024-03-15"},
		{"string date from spaced datetime", "2024-03-15 10:30:00+00:00", sdc4.TemporalDate, "2024-03-15"},
		{"string time from T datetime", "2024-03-15T10:30:00", sdc4.TemporalTime, "10:30:00"},
		{"string time strips offset", "2024-03-15 10:30:00+00:00", sdc4.TemporalTime, "10:30:00"},
		{"string passthrough", "P1Y2M", sdc4.TemporalDuration, "P1Y2M"},
		{"nil", nil, sdc4.TemporalDate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTemporal(tt.value, tt.subtype))
		})
	}
}
