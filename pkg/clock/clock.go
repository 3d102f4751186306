package clock

import (
	"fmt"
	"strings"
)

// Period is one bucket of the in-world day.
type Period string

const (
	Morning   Period = "morning"
	Afternoon Period = "afternoon"
	Evening   Period = "evening"
	Night     Period = "night"
)

// Periods lists the day's periods in order.
var Periods = []Period{Morning, Afternoon, Evening, Night}

// TicksPerPeriod is the number of ticks spent in each period.
const TicksPerPeriod = 6

// TicksPerDay is the length of one in-world day.
const TicksPerDay = TicksPerPeriod * 4

// ParsePeriod returns the Period named by s (case-insensitive).
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period: %q", s)
}

// UnmarshalText lets Period be used as a JSON/YAML map key and value.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText renders the period name.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

// Clock is the monotonic world clock. Tick 0 is the first morning of day 1.
type Clock struct {
	Tick int `json:"tick"`
}

// New returns a clock positioned at tick.
func New(tick int) *Clock {
	if tick < 0 {
		tick = 0
	}
	return &Clock{Tick: tick}
}

// Day returns the 1-based day number.
func (c *Clock) Day() int {
	return c.Tick/TicksPerDay + 1
}

// Period returns the current time-of-day bucket.
func (c *Clock) Period() Period {
	return PeriodAt(c.Tick)
}

// PeriodAt returns the period containing tick.
func PeriodAt(tick int) Period {
	if tick < 0 {
		tick = 0
	}
	return Periods[(tick%TicksPerDay)/TicksPerPeriod]
}

// Advance moves the clock forward. Units below 1 count as 1.
// It reports whether the period changed.
func (c *Clock) Advance(units int) bool {
	if units < 1 {
		units = 1
	}
	before := c.Tick / TicksPerPeriod
	c.Tick += units
	return c.Tick/TicksPerPeriod != before
}

func (c *Clock) String() string {
	return fmt.Sprintf("Day %d, %s", c.Day(), c.Period())
}
