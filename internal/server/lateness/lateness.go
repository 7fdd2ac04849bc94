// Package lateness classifies an arrival time against the daily cutoff.
package lateness

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
)

type Result struct {
	IsLate      bool
	MinutesLate int
}

// parse reads a 24-hour "HH:MM" value into minutes after midnight.
func parse(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidTimeFormat, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Classify compares arrival with cutoff, both "HH:MM". Arriving exactly at the
// cutoff is on time.
func Classify(arrival, cutoff string) (Result, error) {
	a, err := parse(arrival)
	if err != nil {
		return Result{}, err
	}
	c, err := parse(cutoff)
	if err != nil {
		return Result{}, err
	}
	if a <= c {
		return Result{}, nil
	}
	return Result{IsLate: true, MinutesLate: a - c}, nil
}

// Clock formats the time of day of t as "HH:MM", dropping seconds.
func Clock(t time.Time) string {
	return t.Format("15:04")
}

// ValidCutoff reports whether s can be used as a cutoff.
func ValidCutoff(s string) error {
	_, err := parse(s)
	return err
}
