package analytics

import "fintrack/internal/core"

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// trendDeadband is the change, in percent, that still counts as stable.
const trendDeadband = 5.0

// ChangePercent returns (current-previous)/previous*100, or 0 when there is
// no previous amount to compare against.
func ChangePercent(current, previous core.Money) float64 {
	if previous.Cents <= 0 {
		return 0
	}
	return float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
}

// ClassifyTrend compares two expense totals. The deadband is exclusive:
// exactly +5% or -5% is stable.
func ClassifyTrend(current, previous core.Money) Trend {
	return TrendFromChange(ChangePercent(current, previous))
}

func TrendFromChange(pct float64) Trend {
	switch {
	case pct > trendDeadband:
		return TrendIncreasing
	case pct < -trendDeadband:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
