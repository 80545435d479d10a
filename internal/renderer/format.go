package renderer

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as M:SS, or H:MM:SS from one hour up
func FormatDuration(seconds float64) string {
	total := int(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatDate turns "20240115" into "2024-01-15". Other input is returned as-is.
func FormatDate(date string) string {
	if len(date) != 8 {
		return date
	}
	for _, c := range date {
		if c < '0' || c > '9' {
			return date
		}
	}
	return date[:4] + "-" + date[4:6] + "-" + date[6:]
}
