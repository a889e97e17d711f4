package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/savlev/go-savings/internal/models/modelstorage"
)

// Registrar persists user records together with their account and first device.
type Registrar interface {
	AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry, account modelstorage.AccountStorageEntry, device modelstorage.DeviceStorageEntry) error
	GetUserByEmail(ctx context.Context, email string) (modelstorage.UserStorageEntry, error)
}

// DeviceRegistry reads and transitions device verification states.
type DeviceRegistry interface {
	GetDeviceStatus(ctx context.Context, userID, deviceIdentifier string) (modelstorage.DeviceStatus, error)
	GetPendingDevices(ctx context.Context) ([]modelstorage.DeviceStorageEntry, error)
	SetDeviceStatus(ctx context.Context, deviceID string, status modelstorage.DeviceStatus) error
}

// Ledger mutates account balances. Deposit and Withdraw must commit the balance
// change and the transaction record together or not at all; Withdraw must not
// let two concurrent calls spend the same funds.
type Ledger interface {
	GetAccount(ctx context.Context, userID string) (modelstorage.AccountStorageEntry, error)
	GetTransactions(ctx context.Context, accountID string) ([]modelstorage.TransactionStorageEntry, error)
	Deposit(ctx context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error)
	Withdraw(ctx context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error)
}

type Storage interface {
	Registrar
	DeviceRegistry
	Ledger
}
