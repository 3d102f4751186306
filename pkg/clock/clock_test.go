package clock

import "testing"

func TestClock_DayAndPeriod(t *testing.T) {
	tests := []struct {
		name   string
		tick   int
		day    int
		period Period
	}{
		{name: "start", tick: 0, day: 1, period: Morning},
		{name: "last morning tick", tick: TicksPerPeriod - 1, day: 1, period: Morning},
		{name: "afternoon", tick: TicksPerPeriod, day: 1, period: Afternoon},
		{name: "night", tick: 3 * TicksPerPeriod, day: 1, period: Night},
		{name: "second day", tick: TicksPerDay, day: 2, period: Morning},
		{name: "negative clamps", tick: -4, day: 1, period: Morning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.tick)
			if c.Day() != tt.day {
				t.Errorf("expected day %d, got %d", tt.day, c.Day())
			}
			if c.Period() != tt.period {
				t.Errorf("expected period %s, got %s", tt.period, c.Period())
			}
		})
	}
}

func TestClock_Advance(t *testing.T) {
	c := New(0)
	if c.Advance(1) {
		t.Error("expected no period change after one tick")
	}
	if !c.Advance(TicksPerPeriod) {
		t.Error("expected a period change")
	}
	if c.Tick != TicksPerPeriod+1 {
		t.Errorf("expected tick %d, got %d", TicksPerPeriod+1, c.Tick)
	}

	c.Advance(0)
	if c.Tick != TicksPerPeriod+2 {
		t.Errorf("expected zero units to count as one, got tick %d", c.Tick)
	}
}

func TestClock_String(t *testing.T) {
	c := New(TicksPerDay + 2*TicksPerPeriod)
	if got := c.String(); got != "Day 2, evening" {
		t.Errorf("unexpected clock string %q", got)
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(" Night "); err != nil || p != Night {
		t.Errorf("expected night, got %q (%v)", p, err)
	}
	if _, err := ParsePeriod("dusk"); err == nil {
		t.Error("expected error for unknown period")
	}
}
