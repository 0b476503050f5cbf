package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

// EscapeXML escapes the five special characters for element content.
func EscapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// FormatValue renders a field value as the text content of its value
// element. Booleans normalize to true/false, temporal values are
// shaped by the field's subtype, everything else stringifies. The
// result is XML-escaped.
func FormatValue(meta datamodel.FieldMeta, value any) string {
	switch meta.Kind {
	case sdc4.KindBoolean:
		return formatBool(value)
	case sdc4.KindTemporal:
		return EscapeXML(FormatTemporal(value, meta.TemporalSubtype()))
	default:
		return EscapeXML(fmt.Sprint(value))
	}
}

func formatBool(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return "true"
		}
		return "false"
	default:
		return "false"
	}
}

// FormatTemporal renders a temporal value for its XML Schema shape.
// time.Time and time.Duration values format directly; strings pass
// through with the truncation rules below. A date field fed a
// datetime string keeps only the date part, split at the first space
// or 'T'. A time field fed a datetime keeps only the time part with
// any zone offset stripped.
func FormatTemporal(value any, subtype sdc4.TemporalSubtype) string {
	switch v := value.(type) {
	case time.Time:
		return formatTime(v, subtype)
	case time.Duration:
		return formatDuration(v)
	case nil:
		return ""
	default:
		return truncateTemporalString(fmt.Sprint(v), subtype)
	}
}

func formatTime(t time.Time, subtype sdc4.TemporalSubtype) string {
	switch subtype {
	case sdc4.TemporalDate:
		return t.Format("2006-01-02")
	case sdc4.TemporalTime:
		return t.Format("15:04:05")
	case sdc4.TemporalDateTime:
		return t.Format("2006-01-02T15:04:05")
	case sdc4.TemporalYear:
		return t.Format("2006")
	case sdc4.TemporalMonth:
		return t.Format("--01")
	case sdc4.TemporalDay:
		return t.Format("---02")
	case sdc4.TemporalYearMonth:
		return t.Format("2006-01")
	case sdc4.TemporalMonthDay:
		return t.Format("--01-02")
	default:
		return t.Format("2006-01-02T15:04:05")
	}
}

func formatDuration(d time.Duration) string {
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("PT%dH%dM%dS", hours, minutes, seconds)
}

func truncateTemporalString(s string, subtype sdc4.TemporalSubtype) string {
	switch subtype {
	case sdc4.TemporalDate:
		if i := strings.Index(s, " "); i >= 0 {
			s = s[:i]
		}
		if i := strings.Index(s, "T"); i >= 0 {
			s = s[:i]
		}
		return s
	case sdc4.TemporalTime:
		if i := strings.Index(s, "T"); i >= 0 {
			s = s[i+1:]
		} else if parts := strings.SplitN(s, " ", 2); len(parts) == 2 {
			s = parts[1]
		}
		if i := strings.Index(s, "+"); i >= 0 {
			s = s[:i]
		}
		return s
	default:
		return s
	}
}
