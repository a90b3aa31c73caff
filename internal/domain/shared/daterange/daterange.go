package daterange

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
)

// DateRange represents a half-open interval [start, end). Ranges carry
// calendar dates only; callers normalize to midnight UTC before building one.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: start.UTC(), End: end.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps is the single overlap predicate for the whole system. Every
// conflict check delegates here; the half-open semantics let back-to-back
// ranges coexist.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !dr.Start.After(other.Start) && !dr.End.Before(other.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.Start) && t.Before(dr.End)
}

func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Day truncates a timestamp to its calendar date at midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SingleDay returns the one-day range [day, day+1).
func SingleDay(t time.Time) DateRange {
	start := Day(t)
	return DateRange{Start: start, End: start.AddDate(0, 0, 1)}
}
