package floor

import (
	"fmt"
	"time"

	"github.com/appetiteclub/tableside/pkg/enums/urgency"
)

const (
	DefaultWarningAfter = 60 * time.Minute
	DefaultDangerAfter  = 120 * time.Minute
)

// Tiers holds the elapsed thresholds at which an occupied table escalates.
type Tiers struct {
	Warning time.Duration
	Danger  time.Duration
}

func DefaultTiers() Tiers {
	return Tiers{Warning: DefaultWarningAfter, Danger: DefaultDangerAfter}
}

// Classify maps the age of a table's oldest open order to an urgency level.
// Zero thresholds fall back to the defaults.
func (t Tiers) Classify(elapsed time.Duration) urgency.Level {
	warning, danger := t.Warning, t.Danger
	if warning <= 0 {
		warning = DefaultWarningAfter
	}
	if danger <= 0 {
		danger = DefaultDangerAfter
	}

	switch {
	case elapsed >= danger:
		return urgency.Levels.Danger
	case elapsed >= warning:
		return urgency.Levels.Warning
	default:
		return urgency.Levels.Normal
	}
}

// FormatElapsed renders d as "45m", "2h 5m" or "3h". Partial minutes are
// truncated and negative durations read as zero.
func FormatElapsed(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}
