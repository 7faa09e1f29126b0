package domain

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
)

// Pool is the set of doctor roles a free shift is offered to. It maps to a
// Postgres TEXT[] column.
type Pool []Role

func (p Pool) Contains(role Role) bool {
	return slices.Contains(p, role)
}

// Scan parses the {a,b,c} text form returned by Postgres.
func (p *Pool) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("Pool.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*p = Pool{}
		return nil
	}
	parts := strings.Split(s, ",")
	pool := make(Pool, 0, len(parts))
	for _, part := range parts {
		pool = append(pool, Role(strings.Trim(strings.TrimSpace(part), `"`)))
	}
	*p = pool
	return nil
}

// Value serialises the pool as a {a,b,c} array literal.
func (p Pool) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	parts := make([]string, len(p))
	for i, role := range p {
		parts[i] = string(role)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}
