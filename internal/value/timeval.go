package value

import (
	"fmt"

	"ravm/internal/ident"
)

// TimeFormat enumerates the display formats a Time value supports (spec §3.2).
type TimeFormat int

const (
	TimeISO TimeFormat = iota
	TimeUS
	TimeEuropean
	TimeTimestamp
)

// Time is a y/m/d h/m/s value with a display format and delta addition
// (spec §3.2). It deliberately does not depend on time.Time for its
// wire representation, since the VM's time fields are plain integers
// the source language can read/write component-by-component.
type Time struct {
	id                           ident.Identifier
	Year, Month, Day             int
	Hour, Minute, Second         int
	Format                       TimeFormat
}

func NewTime(year, month, day, hour, minute, second int, format TimeFormat) *Time {
	return &Time{
		id: ident.New(ident.CategoryInstance),
		Year: year, Month: month, Day: day,
		Hour: hour, Minute: minute, Second: second,
		Format: format,
	}
}

func (t *Time) TypeName() string            { return "time" }
func (t *Time) TypeID() ident.TypeIdentifier { return typeTime }
func (t *Time) InstanceID() ident.Identifier { return t.id }

func (t *Time) ValueStr() string {
	switch t.Format {
	case TimeUS:
		return fmt.Sprintf("%02d/%02d/%04d %02d:%02d:%02d", t.Month, t.Day, t.Year, t.Hour, t.Minute, t.Second)
	case TimeEuropean:
		return fmt.Sprintf("%02d/%02d/%04d %02d:%02d:%02d", t.Day, t.Month, t.Year, t.Hour, t.Minute, t.Second)
	case TimeTimestamp:
		return fmt.Sprintf("%d", t.toUnixApprox())
	default: // TimeISO
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	}
}

func (t *Time) EscapedStr() string { return t.ValueStr() }
func (t *Time) ToBool() bool       { return true }
func (t *Time) Copy() Value        { return NewTime(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.Format) }

func (t *Time) UpdateFrom(other Value) bool {
	o, ok := other.(*Time)
	if !ok {
		return false
	}
	t.Year, t.Month, t.Day = o.Year, o.Month, o.Day
	t.Hour, t.Minute, t.Second = o.Hour, o.Minute, o.Second
	t.Format = o.Format
	return true
}

func (t *Time) Compare(other Value, relational Relational) (bool, error) {
	o, ok := other.(*Time)
	if !ok {
		switch relational {
		case RT:
			return true, nil
		case RF:
			return false, nil
		case RNE:
			return true, nil
		case RE:
			return false, nil
		}
		return false, errIncompatible("compare", "time", other.TypeName())
	}
	a, b := t.toUnixApprox(), o.toUnixApprox()
	switch relational {
	case RT:
		return true, nil
	case RF:
		return false, nil
	case RE:
		return a == b, nil
	case RNE:
		return a != b, nil
	case RG:
		return a > b, nil
	case RGE:
		return a >= b, nil
	case RL:
		return a < b, nil
	case RLE:
		return a <= b, nil
	}
	return false, errIncompatible("compare", "time", other.TypeName())
}

// toUnixApprox is a monotonic ordering key for comparisons and the
// Timestamp display format; it is a calendar approximation, not a
// timezone-correct Unix time, since Time carries no timezone (spec §3.2
// does not specify one).
func (t *Time) toUnixApprox() int64 {
	days := int64(t.Year)*365 + int64(t.Month)*31 + int64(t.Day)
	return days*86400 + int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)
}

// AddDelta adds a delta expressed in seconds, normalizing components
// on a fixed grid of 31-day months and 12-month years.
// This satisfies spec §3.2's "supports delta addition" without pulling
// in timezone-aware time.Time semantics the value model doesn't need.
func (t *Time) AddDelta(deltaSeconds int64) *Time {
	days := (int64(t.Year)*12+int64(t.Month)-1)*31 + int64(t.Day) - 1
	total := days*86400 + int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second) + deltaSeconds
	if total < 0 {
		total = 0
	}
	second := total % 60
	total /= 60
	minute := total % 60
	total /= 60
	hour := total % 24
	total /= 24
	day := total%31 + 1
	total /= 31
	month := total%12 + 1
	total /= 12
	year := total
	return NewTime(int(year), int(month), int(day), int(hour), int(minute), int(second), t.Format)
}
