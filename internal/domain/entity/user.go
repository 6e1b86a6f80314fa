package entity

import (
	"strings"
	"time"
)

// Role rol comercial de un usuario dentro del CRM.
type Role string

// Roles válidos (se persisten con esta misma grafía).
const (
	RoleSalesManager Role = "SALESMANAGER"
	RoleSalesRep     Role = "SALESREP"
	RoleAdmin        Role = "ADMIN"
)

// Status estado de la cuenta.
type Status string

// Estados válidos.
const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Roles devuelve el conjunto cerrado de roles.
func Roles() []Role {
	return []Role{RoleSalesManager, RoleSalesRep, RoleAdmin}
}

// Statuses devuelve el conjunto cerrado de estados.
func Statuses() []Status {
	return []Status{StatusActive, StatusInactive}
}

// Valid indica si el rol pertenece al conjunto cerrado.
func (r Role) Valid() bool {
	switch r {
	case RoleSalesManager, RoleSalesRep, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Valid indica si el estado pertenece al conjunto cerrado.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (s Status) String() string { return string(s) }

// ParseRole interpreta un rol sin distinguir mayúsculas. El segundo valor es false si no existe.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles() {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// ParseStatus interpreta un estado sin distinguir mayúsculas.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses() {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// User representa un usuario del CRM (tabla users).
// No valida nada: las reglas se aplican en el store antes de persistir.
type User struct {
	ID        int64 // asignado por el store al insertar; 0 = nuevo
	Email     string
	Password  string // slot para el hash; el core no lo genera ni lo verifica
	FirstName string
	LastName  string
	Role      Role
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin *time.Time // nil hasta que un flujo de login externo lo fije
}

// NewUser construye un usuario completo y sella CreatedAt/UpdatedAt con la hora actual.
func NewUser(email, password, firstName, lastName string, role Role, status Status) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsNew indica si el usuario aún no tiene ID asignado por el store.
func (u *User) IsNew() bool {
	return u.ID == 0
}

// Clone devuelve una copia profunda (incluye LastLogin).
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
