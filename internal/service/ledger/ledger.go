// Package ledger provides the account ledger transaction engine.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/savlev/go-savings/internal/models/modeldto"
	"github.com/savlev/go-savings/internal/models/modelstorage"
	serviceErrors "github.com/savlev/go-savings/internal/service/ledger/errors"
	"github.com/savlev/go-savings/internal/storage"
)

// Engine applies deposits and withdrawals against the ledger storage. All
// atomicity and balance guarantees live in the storage transaction; the engine
// owns the amount precondition and the DTO mapping.
type Engine struct {
	storage storage.Ledger
}

// InitService initializes the ledger engine.
func InitService(st storage.Ledger) (*Engine, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	return &Engine{storage: st}, nil
}

// GetStatement retrieves the current balance and the transaction history,
// newest first.
func (e *Engine) GetStatement(ctx context.Context, userID string) (*modeldto.AccountDetails, error) {
	account, err := e.storage.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := e.storage.GetTransactions(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	transactions := make([]modeldto.Transaction, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, toTransactionDTO(entry))
	}
	return &modeldto.AccountDetails{
		Balance:      account.Balance,
		UpdatedAt:    account.UpdatedAt.Format(time.RFC3339),
		Transactions: transactions,
	}, nil
}

// Deposit adds a positive amount to the balance and appends a DEPOSIT
// transaction.
func (e *Engine) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	account, transaction, err := e.storage.Deposit(ctx, userID, uuid.New().String(), normalized)
	if err != nil {
		return nil, err
	}
	return toMutationResponse(account, transaction), nil
}

// Withdraw subtracts a positive amount from the balance and appends a
// WITHDRAWAL transaction. Whether the balance covers the amount is decided
// atomically at write time by the storage layer.
func (e *Engine) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	account, transaction, err := e.storage.Withdraw(ctx, userID, uuid.New().String(), normalized)
	if err != nil {
		return nil, err
	}
	return toMutationResponse(account, transaction), nil
}

// normalizeAmount rejects amounts that are not strictly positive or carry
// sub-cent precision. The ledger stores two fractional digits and never
// rounds on the caller's behalf.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	normalized := amount.Round(2)
	if !amount.IsPositive() || !normalized.Equal(amount) {
		return decimal.Decimal{}, &serviceErrors.InvalidAmountError{Amount: amount.String()}
	}
	return normalized, nil
}

func toTransactionDTO(entry modelstorage.TransactionStorageEntry) modeldto.Transaction {
	return modeldto.Transaction{
		ID:        entry.ID,
		Amount:    entry.Amount,
		Type:      entry.Type,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
}

func toMutationResponse(account modelstorage.AccountStorageEntry, transaction modelstorage.TransactionStorageEntry) *modeldto.MutationResponse {
	return &modeldto.MutationResponse{
		Balance:     account.Balance,
		Transaction: toTransactionDTO(transaction),
	}
}
