package domain

import (
	"slices"
	"time"
)

type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type Customer struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Status       CustomerStatus `json:"status"`
	Roles        []Role         `json:"roles"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (c *Customer) HasRole(role Role) bool {
	return slices.Contains(c.Roles, role)
}
