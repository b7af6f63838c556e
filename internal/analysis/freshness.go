package analysis

import (
	"fmt"
	"time"

	"github.com/ternarybob/stockbrief/internal/models"
)

// FreshnessOracle decides whether a cached analysis record can be served or
// a new run must be started. Staleness is judged per task category: market
// sections age out within a day, qualitative commentary holds for a week.
type FreshnessOracle struct {
	// MarketMaxAge is the staleness window for market-derived sections.
	MarketMaxAge time.Duration

	// QualitativeMaxAge is the staleness window for qualitative sections.
	QualitativeMaxAge time.Duration

	// Holidays lists exchange holidays (date component only, UTC). Market
	// sections do not go stale across days when no new data was published.
	Holidays []time.Time
}

// Default staleness windows.
const (
	DefaultMarketMaxAge      = 24 * time.Hour
	DefaultQualitativeMaxAge = 168 * time.Hour
)

// NewFreshnessOracle returns an oracle with the standard windows:
// 24 hours for market sections, 7 days for qualitative sections.
func NewFreshnessOracle() *FreshnessOracle {
	return &FreshnessOracle{
		MarketMaxAge:      DefaultMarketMaxAge,
		QualitativeMaxAge: DefaultQualitativeMaxAge,
	}
}

// ShouldRegenerate reports whether the record is too stale to serve, with a
// human-readable reason. A nil record, a partial record and a record past any
// category window all force regeneration. Runs are all-or-nothing, so one
// stale category regenerates the whole record.
func (o *FreshnessOracle) ShouldRegenerate(record *models.AnalysisRecord, specs []TaskSpec, now time.Time) (bool, string) {
	if record == nil {
		return true, "no cached analysis"
	}
	if record.Partial {
		return true, fmt.Sprintf("cached analysis is partial, missing %v", record.MissingSections)
	}

	now = now.UTC()
	generatedAt := record.GeneratedAt.UTC()
	age := now.Sub(generatedAt)

	for _, spec := range specs {
		switch spec.Category {
		case CategoryMarket:
			if age > o.MarketMaxAge && o.tradingDayElapsed(generatedAt, now) {
				return true, fmt.Sprintf("market section %q is %s old, window %s", spec.Name, age.Round(time.Minute), o.MarketMaxAge)
			}
		case CategoryQualitative:
			if age > o.QualitativeMaxAge {
				return true, fmt.Sprintf("qualitative section %q is %s old, window %s", spec.Name, age.Round(time.Minute), o.QualitativeMaxAge)
			}
		}
	}

	return false, fmt.Sprintf("cached analysis from %s is fresh", generatedAt.Format("2006-01-02 15:04"))
}

// tradingDayElapsed reports whether at least one trading day has started
// since the record was generated. Market data generated on a Friday carries
// through the weekend: the window only matters once the market has produced
// something newer.
func (o *FreshnessOracle) tradingDayElapsed(generatedAt, now time.Time) bool {
	generatedDay := dateOnly(generatedAt)
	lastTrading := o.lastTradingDay(now)
	return lastTrading.After(generatedDay)
}

// lastTradingDay returns the most recent trading day on or before t, walking
// back over weekends and holidays.
func (o *FreshnessOracle) lastTradingDay(t time.Time) time.Time {
	current := dateOnly(t)
	for i := 0; i < 10; i++ {
		if o.isTradingDay(current) {
			return current
		}
		current = current.AddDate(0, 0, -1)
	}
	return dateOnly(t)
}

func (o *FreshnessOracle) isTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	for _, h := range o.Holidays {
		if dateOnly(h).Equal(dateOnly(t)) {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
