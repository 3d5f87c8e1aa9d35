package history

import (
	"strconv"
	"strings"
	"time"
)

// Units names the day, hour and minute components of a rendered duration.
type Units struct {
	Day    string
	Hour   string
	Minute string
}

// DefaultUnits renders "2 d 3 h 5 m".
var DefaultUnits = Units{Day: "d", Hour: "h", Minute: "m"}

// FormatDuration renders d with DefaultUnits.
func FormatDuration(d time.Duration) string {
	return DefaultUnits.Format(d)
}

// Format renders d as space-joined day, hour and minute components,
// truncated to whole minutes. Zero components are left out, except that
// minutes are always written when nothing else was, so a zero or negative
// duration renders as "0 m".
func (u Units) Format(d time.Duration) string {
	total := int64(max(d, 0) / time.Minute)
	days, rem := total/(24*60), total%(24*60)
	hours, minutes := rem/60, rem%60

	var parts []string
	if days > 0 {
		parts = append(parts, strconv.FormatInt(days, 10)+" "+u.Day)
	}
	if hours > 0 {
		parts = append(parts, strconv.FormatInt(hours, 10)+" "+u.Hour)
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, strconv.FormatInt(minutes, 10)+" "+u.Minute)
	}
	return strings.Join(parts, " ")
}
