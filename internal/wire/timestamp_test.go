package wire

import (
	"math"
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(1995, 6, 15, 8, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 678900000, time.UTC),
		time.Date(2030, 12, 31, 23, 59, 59, 999999000, time.UTC),
		time.Unix(0, 0).UTC(),
	}
	for _, want := range cases {
		got := FromTime(want).Time()
		if d := got.Sub(want); d < -time.Microsecond || d > time.Microsecond {
			t.Errorf("round trip %v drifted by %v", want, d)
		}
	}
}

func TestTimestampSaturation(t *testing.T) {
	if ts := FromTime(time.Date(1850, 1, 1, 0, 0, 0, 0, time.UTC)); ts != 0 {
		t.Errorf("pre-epoch input = %#x, want 0", uint64(ts))
	}
	if ts := FromTime(time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)); ts != MaxTimestamp {
		t.Errorf("post-era input = %#x, want MaxTimestamp", uint64(ts))
	}
	if ts := FromUnixSeconds(math.NaN()); ts != 0 {
		t.Errorf("NaN input = %#x, want 0", uint64(ts))
	}
}

func TestTimestampZeroSentinel(t *testing.T) {
	var ts Timestamp
	if !ts.IsZero() {
		t.Fatal("zero Timestamp not reported as zero")
	}
	want := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ts.Time(); !got.Equal(want) {
		t.Errorf("zero Timestamp decodes to %v, want %v", got, want)
	}
}

func TestTimestampResolution(t *testing.T) {
	base := time.Date(2025, 3, 3, 3, 3, 3, 0, time.UTC)
	a := FromTime(base)
	b := FromTime(base.Add(time.Microsecond))
	if a == b {
		t.Error("one microsecond not distinguishable")
	}
}
