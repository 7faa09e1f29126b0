package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// ParseHours reads a display string such as "8-14", "20-8" or "08:30-14:00"
// and returns the start and end offsets from midnight.
func ParseHours(hours string) (time.Duration, time.Duration, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(hours), "-")
	if !ok {
		return 0, 0, fmt.Errorf("%w: hours %q must look like 8-14", domain.ErrValidation, hours)
	}
	start, err := parseClock(from)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: hours %q: %v", domain.ErrValidation, hours, err)
	}
	end, err := parseClock(to)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: hours %q: %v", domain.ErrValidation, hours, err)
	}
	return start, end, nil
}

func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	hh, mm, hasMinutes := strings.Cut(s, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("bad hour %q", s)
	}
	m := 0
	if hasMinutes {
		m, err = strconv.Atoi(mm)
		if err != nil || m < 0 || m > 59 || len(mm) != 2 {
			return 0, fmt.Errorf("bad minutes %q", s)
		}
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// NominalDuration is the scheduled length of a shift. An end at or before the
// start wraps past midnight, so "8-8" is a 24 hour guardia.
func NominalDuration(hours string) (time.Duration, error) {
	start, end, err := ParseHours(hours)
	if err != nil {
		return 0, err
	}
	if end <= start {
		end += 24 * time.Hour
	}
	return end - start, nil
}

func IsOvernight(hours string) bool {
	start, end, err := ParseHours(hours)
	return err == nil && end <= start
}
