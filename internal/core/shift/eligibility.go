package shift

import (
	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// EligibleDoctors returns the active doctors without a shift on the date,
// minus the excluded one. It scopes notification fan-out only; claiming is
// open to every doctor.
func EligibleDoctors(doctors []*domain.User, busy []int64, exclude *int64) []*domain.User {
	busySet := make(map[int64]struct{}, len(busy))
	for _, id := range busy {
		busySet[id] = struct{}{}
	}

	eligible := make([]*domain.User, 0, len(doctors))
	for _, d := range doctors {
		if !d.IsActive || !d.Role.IsDoctor() {
			continue
		}
		if exclude != nil && d.ID == *exclude {
			continue
		}
		if _, ok := busySet[d.ID]; ok {
			continue
		}
		eligible = append(eligible, d)
	}
	return eligible
}

// FilterByPool keeps the doctors whose role is in the pool.
func FilterByPool(doctors []*domain.User, pool domain.Pool) []*domain.User {
	filtered := make([]*domain.User, 0, len(doctors))
	for _, d := range doctors {
		if pool.Contains(d.Role) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
