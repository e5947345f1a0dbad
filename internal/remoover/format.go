package remoover

import (
	"fmt"
	"math"
	"time"
)

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div := float64(size)
	exp := -1
	units := []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	for div >= unit && exp < len(units)-1 {
		div /= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", div, units[exp])
}

// formatTicks renders a duration expressed in timescale ticks.
func formatTicks(ticks int64, timescale uint32) string {
	if timescale == 0 {
		return ""
	}
	return formatDuration(float64(ticks) / float64(timescale))
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0 ms"
	}

	totalMs := int64(math.Round(seconds * 1000))
	if totalMs < 1000 {
		return fmt.Sprintf("%d ms", totalMs)
	}

	totalSec := totalMs / 1000
	remMs := totalMs % 1000
	if totalSec < 60 {
		return fmt.Sprintf("%d s %d ms", totalSec, remMs)
	}

	hours := totalSec / 3600
	minutes := (totalSec % 3600) / 60
	secondsOnly := totalSec % 60
	if hours > 0 {
		return fmt.Sprintf("%d h %d min %d s", hours, minutes, secondsOnly)
	}
	return fmt.Sprintf("%d min %d s", minutes, secondsOnly)
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
