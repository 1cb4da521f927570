package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Common durations.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Duration is a time.Duration written in YAML as a string such as "10s", "2d" or "1w2d".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler. Whole days are written with the d unit.
func (d Duration) MarshalYAML() (any, error) {
	v := time.Duration(d)
	if v >= Day && v%Day == 0 {
		return fmt.Sprintf("%dd", v/Day), nil
	}
	return v.String(), nil
}

var durationUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  Day,
	"w":  Week,
}

var durationTerm = regexp.MustCompile(`([0-9]*\.?[0-9]+)(ns|us|µs|ms|s|m|h|d|w)`)

// ParseDuration parses a sequence of number+unit terms. An empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var total time.Duration
	consumed := 0
	for _, m := range durationTerm.FindAllStringSubmatchIndex(s, -1) {
		if m[0] != consumed {
			break
		}
		val, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in duration %q: %w", s, err)
		}
		total += time.Duration(val * float64(durationUnits[s[m[4]:m[5]]]))
		consumed = m[1]
	}
	if consumed != len(s) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return total, nil
}

const (
	metersPerNM   = 1852.0
	metersPerFoot = 0.3048
)

// Distance is a length in meters. YAML accepts a bare number of meters or a
// string with a nm, km, ft or m suffix.
type Distance float64

// NauticalMiles returns the distance in nautical miles.
func (d Distance) NauticalMiles() float64 { return float64(d) / metersPerNM }

// Feet returns the distance in feet.
func (d Distance) Feet() float64 { return float64(d) / metersPerFoot }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Distance) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err == nil {
		*d = Distance(f)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseDistance(s)
	if err != nil {
		return err
	}
	*d = Distance(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler. Whole nautical miles are written as such.
func (d Distance) MarshalYAML() (any, error) {
	nm := d.NauticalMiles()
	if nm >= 1 && nm == float64(int64(nm)) {
		return fmt.Sprintf("%dnm", int64(nm)), nil
	}
	return fmt.Sprintf("%.2fm", float64(d)), nil
}

// Longer suffixes first so "nm" and "km" are not read as "m".
var distanceUnits = []struct {
	suffix string
	meters float64
}{
	{"nm", metersPerNM},
	{"km", 1000},
	{"ft", metersPerFoot},
	{"m", 1},
}

// ParseDistance parses "10nm", "2.5km", "300m", "1000ft" or a bare number of meters.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	mult := 1.0
	for _, u := range distanceUnits {
		if strings.HasSuffix(s, u.suffix) {
			s, mult = strings.TrimSuffix(s, u.suffix), u.meters
			break
		}
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid distance number: %w", err)
	}
	return val * mult, nil
}
