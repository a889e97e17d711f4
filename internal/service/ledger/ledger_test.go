package ledger

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/savlev/go-savings/internal/models/modelstorage"
	serviceErrors "github.com/savlev/go-savings/internal/service/ledger/errors"
	storageErrors "github.com/savlev/go-savings/internal/storage/errors"
)

// fakeLedgerStorage mimics the storage contract: mutations are atomic and the
// withdrawal funds check happens at write time.
type fakeLedgerStorage struct {
	mu            sync.Mutex
	accounts      map[string]modelstorage.AccountStorageEntry // keyed by userID
	transactions  []modelstorage.TransactionStorageEntry
	mutationCalls int
}

func newFakeLedgerStorage() *fakeLedgerStorage {
	return &fakeLedgerStorage{accounts: make(map[string]modelstorage.AccountStorageEntry)}
}

func (f *fakeLedgerStorage) addAccount(userID string, balance decimal.Decimal) {
	f.accounts[userID] = modelstorage.AccountStorageEntry{
		ID:        "acc-" + userID,
		UserID:    userID,
		Balance:   balance,
		UpdatedAt: time.Now(),
	}
}

func (f *fakeLedgerStorage) GetAccount(_ context.Context, userID string) (modelstorage.AccountStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return modelstorage.AccountStorageEntry{}, &storageErrors.NotFoundError{Err: sql.ErrNoRows}
	}
	return account, nil
}

func (f *fakeLedgerStorage) GetTransactions(_ context.Context, accountID string) ([]modelstorage.TransactionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.TransactionStorageEntry
	// newest first
	for i := len(f.transactions) - 1; i >= 0; i-- {
		if f.transactions[i].AccountID == accountID {
			entries = append(entries, f.transactions[i])
		}
	}
	return entries, nil
}

func (f *fakeLedgerStorage) Deposit(_ context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	return f.mutate(userID, transactionID, amount, modelstorage.TransactionTypeDeposit)
}

func (f *fakeLedgerStorage) Withdraw(_ context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	return f.mutate(userID, transactionID, amount, modelstorage.TransactionTypeWithdrawal)
}

func (f *fakeLedgerStorage) mutate(userID, transactionID string, amount decimal.Decimal, transactionType string) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutationCalls++
	account, ok := f.accounts[userID]
	if !ok {
		return modelstorage.AccountStorageEntry{}, modelstorage.TransactionStorageEntry{}, &storageErrors.NotFoundError{Err: sql.ErrNoRows}
	}
	if transactionType == modelstorage.TransactionTypeWithdrawal {
		if account.Balance.LessThan(amount) {
			return modelstorage.AccountStorageEntry{}, modelstorage.TransactionStorageEntry{}, &storageErrors.NotEnoughFundsError{}
		}
		account.Balance = account.Balance.Sub(amount)
	} else {
		account.Balance = account.Balance.Add(amount)
	}
	account.UpdatedAt = time.Now()
	f.accounts[userID] = account
	transaction := modelstorage.TransactionStorageEntry{
		ID:        transactionID,
		AccountID: account.ID,
		Amount:    amount,
		Type:      transactionType,
		CreatedAt: account.UpdatedAt,
	}
	f.transactions = append(f.transactions, transaction)
	return account, transaction, nil
}

func (f *fakeLedgerStorage) transactionsOfType(transactionType string) []modelstorage.TransactionStorageEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []modelstorage.TransactionStorageEntry
	for _, transaction := range f.transactions {
		if transaction.Type == transactionType {
			entries = append(entries, transaction)
		}
	}
	return entries
}

func newTestEngine(t *testing.T) (*Engine, *fakeLedgerStorage) {
	t.Helper()
	st := newFakeLedgerStorage()
	engine, err := InitService(st)
	require.NoError(t, err)
	return engine, st
}

func TestDeposit(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.RequireFromString("10.50"))

	response, err := engine.Deposit(context.Background(), "u1", decimal.RequireFromString("4.25"))
	require.NoError(t, err)
	assert.True(t, response.Balance.Equal(decimal.RequireFromString("14.75")), "got %s", response.Balance)
	assert.Equal(t, modelstorage.TransactionTypeDeposit, response.Transaction.Type)
	assert.True(t, response.Transaction.Amount.Equal(decimal.RequireFromString("4.25")))
	assert.Len(t, st.transactionsOfType(modelstorage.TransactionTypeDeposit), 1)
}

func TestDeposit_NoAccount(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.Deposit(context.Background(), "ghost", decimal.RequireFromString("1.00"))
	var notFoundError *storageErrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundError)
}

func TestWithdraw(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.RequireFromString("100.00"))

	response, err := engine.Withdraw(context.Background(), "u1", decimal.RequireFromString("60.00"))
	require.NoError(t, err)
	assert.True(t, response.Balance.Equal(decimal.RequireFromString("40.00")), "got %s", response.Balance)
	assert.Equal(t, modelstorage.TransactionTypeWithdrawal, response.Transaction.Type)
}

func TestWithdraw_NotEnoughFunds(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.RequireFromString("59.99"))

	_, err := engine.Withdraw(context.Background(), "u1", decimal.RequireFromString("60.00"))
	var notEnoughFundsError *storageErrors.NotEnoughFundsError
	require.ErrorAs(t, err, &notEnoughFundsError)
	// the failed withdrawal must leave no trace
	account, err := st.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("59.99")))
	assert.Empty(t, st.transactionsOfType(modelstorage.TransactionTypeWithdrawal))
}

func TestWithdraw_NoAccount(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.Withdraw(context.Background(), "ghost", decimal.RequireFromString("1.00"))
	var notFoundError *storageErrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundError)
}

func TestMutations_InvalidAmount(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.RequireFromString("100.00"))

	// non-positive amounts and sub-cent precision are both rejected, never rounded
	amounts := []string{"0", "-1", "-0.01", "0.001", "10.005", "9.999"}
	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		var invalidAmountError *serviceErrors.InvalidAmountError
		_, err := engine.Deposit(context.Background(), "u1", amount)
		assert.ErrorAs(t, err, &invalidAmountError, "deposit of %s", raw)
		_, err = engine.Withdraw(context.Background(), "u1", amount)
		assert.ErrorAs(t, err, &invalidAmountError, "withdraw of %s", raw)
	}
	// storage must never have been touched
	assert.Zero(t, st.mutationCalls)
	account, err := st.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestDeposit_NoDrift(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.Zero)

	cent := decimal.RequireFromString("0.01")
	var last decimal.Decimal
	for i := 0; i < 10000; i++ {
		response, err := engine.Deposit(context.Background(), "u1", cent)
		require.NoError(t, err)
		last = response.Balance
	}
	assert.True(t, last.Equal(decimal.RequireFromString("100.00")), "got %s", last)
}

func TestWithdraw_ConcurrentRace(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.RequireFromString("100.00"))

	const workers = 8
	amount := decimal.RequireFromString("60.00")
	results := make(chan error, workers)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			_, err := engine.Withdraw(ctx, "u1", amount)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var succeeded, rejected int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var notEnoughFundsError *storageErrors.NotEnoughFundsError
		require.ErrorAs(t, err, &notEnoughFundsError)
		rejected++
	}
	// the balance covers exactly one withdrawal
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)

	account, err := st.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("40.00")), "got %s", account.Balance)
	assert.Len(t, st.transactionsOfType(modelstorage.TransactionTypeWithdrawal), 1)
}

func TestGetStatement(t *testing.T) {
	engine, st := newTestEngine(t)
	st.addAccount("u1", decimal.Zero)

	_, err := engine.Deposit(context.Background(), "u1", decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	_, err = engine.Deposit(context.Background(), "u1", decimal.RequireFromString("3.00"))
	require.NoError(t, err)
	_, err = engine.Withdraw(context.Background(), "u1", decimal.RequireFromString("2.00"))
	require.NoError(t, err)

	statement, err := engine.GetStatement(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, statement.Balance.Equal(decimal.RequireFromString("6.00")), "got %s", statement.Balance)
	require.Len(t, statement.Transactions, 3)
	// newest first
	assert.Equal(t, modelstorage.TransactionTypeWithdrawal, statement.Transactions[0].Type)
	assert.True(t, statement.Transactions[0].Amount.Equal(decimal.RequireFromString("2.00")))
	assert.True(t, statement.Transactions[2].Amount.Equal(decimal.RequireFromString("5.00")))
}

func TestGetStatement_NoAccount(t *testing.T) {
	engine, _ := newTestEngine(t)
	_, err := engine.GetStatement(context.Background(), "ghost")
	var notFoundError *storageErrors.NotFoundError
	assert.ErrorAs(t, err, &notFoundError)
}
