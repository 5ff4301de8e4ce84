package ical

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDuration parses an RFC 5545 DURATION value such as "PT1H30M", "P1D",
// "P1W" or "-PT15M". Nominal day/week durations are converted at 24 hours per
// day, which is the convention for UTC-normalized events.
func parseDuration(value string) (time.Duration, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	if len(s) == 0 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	components := 0

	flush := func(unit byte) error {
		if num == "" {
			return fmt.Errorf("invalid duration %q: missing digits before %q", value, string(unit))
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		num = ""
		switch {
		case unit == 'W':
			total += time.Duration(n) * 7 * 24 * time.Hour
		case unit == 'D':
			total += time.Duration(n) * 24 * time.Hour
		case unit == 'H' && inTime:
			total += time.Duration(n) * time.Hour
		case unit == 'M' && inTime:
			total += time.Duration(n) * time.Minute
		case unit == 'S' && inTime:
			total += time.Duration(n) * time.Second
		default:
			return fmt.Errorf("invalid duration %q: unexpected designator %q", value, string(unit))
		}
		components++
		return nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			num += string(c)
		case c == 'T':
			if num != "" {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			inTime = true
		default:
			if err := flush(c); err != nil {
				return 0, err
			}
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q: trailing digits", value)
	}
	if components == 0 {
		return 0, fmt.Errorf("invalid duration %q: no components", value)
	}

	if negative {
		total = -total
	}
	return total, nil
}
