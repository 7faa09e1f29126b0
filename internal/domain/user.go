package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleConsultorio Role = "consultorio"
	RoleInternacion Role = "internacion"
	RoleCompleto    Role = "completo"
)

var DoctorRoles = []Role{RoleConsultorio, RoleInternacion, RoleCompleto}

func (r Role) IsDoctor() bool {
	return slices.Contains(DoctorRoles, r)
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

// Actor is whoever invokes a lifecycle operation.
type Actor struct {
	ID   int64
	Role Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}
