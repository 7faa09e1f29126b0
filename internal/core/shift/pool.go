package shift

import (
	"fmt"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

// DefaultPoolForArea returns the roles a free shift of the given area is
// offered to. It is the only place this mapping lives.
func DefaultPoolForArea(area domain.Area) domain.Pool {
	switch area {
	case domain.AreaConsultorio:
		return domain.Pool{domain.RoleConsultorio}
	case domain.AreaInternacion:
		return domain.Pool{domain.RoleInternacion}
	case domain.AreaRefuerzo:
		return domain.Pool{domain.RoleConsultorio, domain.RoleInternacion}
	case domain.AreaCompleto:
		return domain.Pool{domain.RoleCompleto}
	default:
		return nil
	}
}

// ResolvePool keeps an explicit pool when one is given and falls back to the
// area default otherwise.
func ResolvePool(explicit domain.Pool, area domain.Area) (domain.Pool, error) {
	pool := make(domain.Pool, 0, len(explicit))
	for _, role := range explicit {
		if !role.IsDoctor() {
			return nil, fmt.Errorf("%w: %q is not a doctor role", domain.ErrValidation, role)
		}
		if !pool.Contains(role) {
			pool = append(pool, role)
		}
	}
	if len(pool) == 0 {
		pool = DefaultPoolForArea(area)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: area %q has no default pool", domain.ErrEmptyPool, area)
	}
	return pool, nil
}
