// Package modelstorage provides types for DB row representation.
package modelstorage

import (
	"time"

	"github.com/shopspring/decimal"
)

// User roles. Every registered user starts as a customer; the admin role is
// assigned outside of this service.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// DeviceStatus is a closed set of device verification states.
type DeviceStatus string

const (
	DeviceStatusPending  DeviceStatus = "PENDING"
	DeviceStatusVerified DeviceStatus = "VERIFIED"
	DeviceStatusRejected DeviceStatus = "REJECTED"
)

// Transaction types.
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
)

type UserStorageEntry struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	RegisteredAt time.Time `db:"registered_at"`
}

type DeviceStorageEntry struct {
	ID               string       `db:"id"`
	UserID           string       `db:"user_id"`
	DeviceIdentifier string       `db:"device_identifier"`
	Status           DeviceStatus `db:"status"`
	CreatedAt        time.Time    `db:"created_at"`
}

type AccountStorageEntry struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	UpdatedAt time.Time       `db:"updated_at"`
}

type TransactionStorageEntry struct {
	ID        string          `db:"id"`
	AccountID string          `db:"account_id"`
	Amount    decimal.Decimal `db:"amount"`
	Type      string          `db:"type"`
	CreatedAt time.Time       `db:"created_at"`
}
