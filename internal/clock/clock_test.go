package clock

import (
	"testing"
	"time"
)

func TestMonthStart(t *testing.T) {
	in := time.Date(2024, time.March, 31, 23, 59, 0, 0, time.FixedZone("BRT", -3*3600))
	got := MonthStart(in)
	want := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFakeClockAdvance(t *testing.T) {
	c := NewFakeClock(time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC))
	c.Advance(24 * time.Hour)
	if c.Now().Month() != time.February {
		t.Fatalf("expected february, got %s", c.Now().Month())
	}
}
