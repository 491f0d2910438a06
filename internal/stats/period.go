package stats

import (
	"errors"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/core"
	"github.com/zhangyujiu/HouseKeeper/internal/dates"
)

var ErrInvalidPeriod = errors.New("invalid statistics period")

// Period is a named relative date window for the statistics view. All
// periods except AllTime resolve against the supplied reference time, so the
// same period yields a different window from one day to the next.
type Period string

const (
	ThisMonth Period = "THIS_MONTH"
	LastMonth Period = "LAST_MONTH"
	ThisYear  Period = "THIS_YEAR"
	AllTime   Period = "ALL_TIME"
)

func (p Period) Valid() bool {
	switch p {
	case ThisMonth, LastMonth, ThisYear, AllTime:
		return true
	}
	return false
}

// Window resolves the period to a concrete inclusive [start, end] anchored on
// now. For AllTime bounded is false and the returned times are zero.
func (p Period) Window(now time.Time) (start, end time.Time, bounded bool) {
	switch p {
	case ThisMonth:
		return dates.StartOfMonth(now), dates.EndOfMonth(now), true
	case LastMonth:
		prev := dates.StartOfMonth(now).AddDate(0, -1, 0)
		return dates.StartOfMonth(prev), dates.EndOfMonth(prev), true
	case ThisYear:
		return dates.StartOfYear(now), dates.EndOfYear(now), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// InPeriod narrows txs to those whose occurrence date falls within the
// period's window, both bounds inclusive. AllTime returns the input as is.
func InPeriod(txs []core.Transaction, p Period, now time.Time) []core.Transaction {
	start, end, bounded := p.Window(now)
	if !bounded {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if dates.Within(tx.Date, start, end) {
			out = append(out, tx)
		}
	}
	return out
}
