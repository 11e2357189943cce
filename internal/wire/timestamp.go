package wire

import (
	"math"
	"time"
)

// ntpEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

// fracScale converts between nanoseconds and the 32-bit fractional part.
const fracScale = float64(1 << 32)

// Timestamp is a 64-bit NTP fixed-point timestamp: the high 32 bits count
// whole seconds since the NTP epoch, the low 32 bits count 1/2^32 fractions
// of a second (~233 ps resolution, comfortably below the microsecond the
// rest of the subsystem needs).
type Timestamp uint64

// MaxTimestamp is the latest representable instant in the current NTP era.
const MaxTimestamp = Timestamp(math.MaxUint64)

// FromTime packs t into a Timestamp. Instants before the NTP epoch saturate
// to zero and instants past the end of the era saturate to MaxTimestamp;
// FromTime never fails.
func FromTime(t time.Time) Timestamp {
	sec := t.Unix() + ntpEpochOffset
	if sec < 0 {
		return 0
	}
	if sec > math.MaxUint32 {
		return MaxTimestamp
	}
	frac := uint64(t.Nanosecond()) << 32 / 1e9
	return Timestamp(uint64(sec)<<32 | frac)
}

// FromUnixSeconds packs a Unix wall-clock reading (seconds, fractional part
// allowed) into a Timestamp, saturating at the representable bounds.
func FromUnixSeconds(sec float64) Timestamp {
	ntpSec := sec + ntpEpochOffset
	if math.IsNaN(ntpSec) || ntpSec <= 0 {
		return 0
	}
	if ntpSec >= float64(math.MaxUint32)+1 {
		return MaxTimestamp
	}
	whole, frac := math.Modf(ntpSec)
	return Timestamp(uint64(whole)<<32 | uint64(frac*fracScale))
}

// Seconds returns the whole-seconds part (seconds since the NTP epoch).
func (ts Timestamp) Seconds() uint32 { return uint32(ts >> 32) }

// Fraction returns the fractional part in 1/2^32 second units.
func (ts Timestamp) Fraction() uint32 { return uint32(ts) }

// IsZero reports whether ts is the zero sentinel.
func (ts Timestamp) IsZero() bool { return ts == 0 }

// UnixSeconds unpacks ts into Unix wall-clock seconds. The zero value
// decodes to the NTP epoch itself (a negative Unix value), the documented
// sentinel for corrupt or absent timestamps; callers should check IsZero
// before trusting the result.
func (ts Timestamp) UnixSeconds() float64 {
	return float64(ts.Seconds()) - ntpEpochOffset + float64(ts.Fraction())/fracScale
}

// Time unpacks ts into a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	sec := int64(ts.Seconds()) - ntpEpochOffset
	nsec := int64(math.Round(float64(ts.Fraction()) / fracScale * 1e9))
	return time.Unix(sec, nsec).UTC()
}
