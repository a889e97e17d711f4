// Package inpsql provides PSQL-based storage functionality.
package inpsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/savlev/go-savings/internal/config"
	"github.com/savlev/go-savings/internal/models/modelstorage"
	storageErrors "github.com/savlev/go-savings/internal/storage/errors"
)

// Storage implements persistence over a PSQL connection. Concurrent money
// mutations are serialized by the DB transaction semantics, never by
// in-process locking.
type Storage struct {
	Cfg *config.StorageConfig
	DB  *sql.DB
	log *zerolog.Logger
}

// InitStorage initializes a Storage object, establishes a DB connection and creates tables if necessary.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*Storage, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	st := Storage{
		Cfg: cfg,
		DB:  db,
		log: log,
	}
	err = st.createTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Msg("PSQL DB connection was established")
	return &st, nil
}

// AddNewUser creates a user, its zero-balance account and a pending device row
// in one transaction, so that a failure leaves no partial registration behind.
func (s *Storage) AddNewUser(ctx context.Context, user modelstorage.UserStorageEntry, account modelstorage.AccountStorageEntry, device modelstorage.DeviceStorageEntry) error {
	chanOk := make(chan bool, 1)
	chanEr := make(chan error, 1)
	go func() {
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		_, err = tx.ExecContext(ctx, "INSERT INTO users (id, email, full_name, password_hash, role, registered_at) VALUES ($1, $2, $3, $4, $5, $6)",
			user.ID, user.Email, user.FullName, user.PasswordHash, user.Role, user.RegisteredAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				chanEr <- &storageErrors.AlreadyExistsError{Err: err, ID: user.Email}
				return
			}
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO accounts (id, user_id, balance, updated_at) VALUES ($1, $2, $3, $4)",
			account.ID, account.UserID, account.Balance, account.UpdatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO devices (id, user_id, device_identifier, status, created_at) VALUES ($1, $2, $3, $4, $5)",
			device.ID, device.UserID, device.DeviceIdentifier, device.Status, device.CreatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- true
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("adding new user failed for %s", user.Email))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("adding new user failed for %s", user.Email))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("adding new user done for %s", user.Email))
		return nil
	}
}

// GetUserByEmail retrieves a user row; a missing row is a NotFoundError, the
// caller decides whether that is worth distinguishing.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (modelstorage.UserStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, email, full_name, password_hash, role, registered_at FROM users WHERE email = $1")
	if err != nil {
		return modelstorage.UserStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.UserStorageEntry, 1)
	chanEr := make(chan error, 1)
	go func() {
		var queryOutput modelstorage.UserStorageEntry
		err := selectStmt.QueryRowContext(ctx, email).Scan(&queryOutput.ID, &queryOutput.Email, &queryOutput.FullName, &queryOutput.PasswordHash, &queryOutput.Role, &queryOutput.RegisteredAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
			default:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("user retrieval failed")
		return modelstorage.UserStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return modelstorage.UserStorageEntry{}, methodErr
	case user := <-chanOk:
		return user, nil
	}
}

// GetDeviceStatus retrieves the verification status of one (user, device) pair.
func (s *Storage) GetDeviceStatus(ctx context.Context, userID, deviceIdentifier string) (modelstorage.DeviceStatus, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT status FROM devices WHERE user_id = $1 AND device_identifier = $2")
	if err != nil {
		return "", &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.DeviceStatus, 1)
	chanEr := make(chan error, 1)
	go func() {
		var status modelstorage.DeviceStatus
		err := selectStmt.QueryRowContext(ctx, userID, deviceIdentifier).Scan(&status)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
			default:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			}
			return
		}
		chanOk <- status
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("device status retrieval failed")
		return "", &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return "", methodErr
	case status := <-chanOk:
		return status, nil
	}
}

// GetPendingDevices lists devices awaiting an administrative verdict.
func (s *Storage) GetPendingDevices(ctx context.Context) ([]modelstorage.DeviceStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, user_id, device_identifier, status, created_at FROM devices WHERE status = $1 ORDER BY created_at")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.DeviceStorageEntry, 1)
	chanEr := make(chan error, 1)
	go func() {
		rows, err := selectStmt.QueryContext(ctx, modelstorage.DeviceStatusPending)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.DeviceStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.DeviceStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.UserID, &queryOutputRow.DeviceIdentifier, &queryOutputRow.Status, &queryOutputRow.CreatedAt)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		if err = rows.Err(); err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("pending devices retrieval failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return nil, methodErr
	case devices := <-chanOk:
		return devices, nil
	}
}

// SetDeviceStatus transitions a device out of the pending state. Rows already
// verified or rejected are terminal and are reported as not found.
func (s *Storage) SetDeviceStatus(ctx context.Context, deviceID string, status modelstorage.DeviceStatus) error {
	updateStmt, err := s.DB.PrepareContext(ctx, "UPDATE devices SET status = $1 WHERE id = $2 AND status = $3")
	if err != nil {
		return &storageErrors.StatementPSQLError{Err: err}
	}
	defer updateStmt.Close()
	chanOk := make(chan bool, 1)
	chanEr := make(chan error, 1)
	go func() {
		res, err := updateStmt.ExecContext(ctx, status, deviceID, modelstorage.DeviceStatusPending)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		affected, err := res.RowsAffected()
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if affected == 0 {
			chanEr <- &storageErrors.NotFoundError{Err: sql.ErrNoRows}
			return
		}
		chanOk <- true
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("device status update failed for %s", deviceID))
		return &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("device status update failed for %s", deviceID))
		return methodErr
	case <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("device %s set to %s", deviceID, status))
		return nil
	}
}

// GetAccount retrieves the account row owned by a user.
func (s *Storage) GetAccount(ctx context.Context, userID string) (modelstorage.AccountStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, user_id, balance, updated_at FROM accounts WHERE user_id = $1")
	if err != nil {
		return modelstorage.AccountStorageEntry{}, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan modelstorage.AccountStorageEntry, 1)
	chanEr := make(chan error, 1)
	go func() {
		var queryOutput modelstorage.AccountStorageEntry
		err := selectStmt.QueryRowContext(ctx, userID).Scan(&queryOutput.ID, &queryOutput.UserID, &queryOutput.Balance, &queryOutput.UpdatedAt)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
			default:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("account retrieval failed")
		return modelstorage.AccountStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return modelstorage.AccountStorageEntry{}, methodErr
	case account := <-chanOk:
		return account, nil
	}
}

// GetTransactions retrieves the transaction history of an account, newest first.
func (s *Storage) GetTransactions(ctx context.Context, accountID string) ([]modelstorage.TransactionStorageEntry, error) {
	selectStmt, err := s.DB.PrepareContext(ctx, "SELECT id, account_id, amount, type, created_at FROM transactions WHERE account_id = $1 ORDER BY created_at DESC")
	if err != nil {
		return nil, &storageErrors.StatementPSQLError{Err: err}
	}
	defer selectStmt.Close()
	chanOk := make(chan []modelstorage.TransactionStorageEntry, 1)
	chanEr := make(chan error, 1)
	go func() {
		rows, err := selectStmt.QueryContext(ctx, accountID)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer rows.Close()
		var queryOutput []modelstorage.TransactionStorageEntry
		for rows.Next() {
			var queryOutputRow modelstorage.TransactionStorageEntry
			err = rows.Scan(&queryOutputRow.ID, &queryOutputRow.AccountID, &queryOutputRow.Amount, &queryOutputRow.Type, &queryOutputRow.CreatedAt)
			if err != nil {
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
				return
			}
			queryOutput = append(queryOutput, queryOutputRow)
		}
		if err = rows.Err(); err != nil {
			chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			return
		}
		chanOk <- queryOutput
	}()
	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg("transaction history retrieval failed")
		return nil, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		return nil, methodErr
	case transactions := <-chanOk:
		return transactions, nil
	}
}

// Deposit increments the balance and appends a DEPOSIT transaction row in one
// DB transaction.
func (s *Storage) Deposit(ctx context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	return s.mutateBalance(ctx, userID, transactionID, amount, modelstorage.TransactionTypeDeposit)
}

// Withdraw decrements the balance and appends a WITHDRAWAL transaction row in
// one DB transaction. The decrement is conditional on the balance still
// covering the amount at write time, so two concurrent withdrawals can never
// both spend the same funds.
func (s *Storage) Withdraw(ctx context.Context, userID, transactionID string, amount decimal.Decimal) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	return s.mutateBalance(ctx, userID, transactionID, amount, modelstorage.TransactionTypeWithdrawal)
}

func (s *Storage) mutateBalance(ctx context.Context, userID, transactionID string, amount decimal.Decimal, transactionType string) (modelstorage.AccountStorageEntry, modelstorage.TransactionStorageEntry, error) {
	type mutationResult struct {
		account     modelstorage.AccountStorageEntry
		transaction modelstorage.TransactionStorageEntry
	}
	chanOk := make(chan mutationResult, 1)
	chanEr := make(chan error, 1)
	go func() {
		tx, err := s.DB.BeginTx(ctx, nil)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		defer tx.Rollback()
		now := time.Now()
		var account modelstorage.AccountStorageEntry
		var updateQuery string
		if transactionType == modelstorage.TransactionTypeDeposit {
			updateQuery = "UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE user_id = $3 RETURNING id, user_id, balance, updated_at"
		} else {
			updateQuery = "UPDATE accounts SET balance = balance - $1, updated_at = $2 WHERE user_id = $3 AND balance >= $1 RETURNING id, user_id, balance, updated_at"
		}
		err = tx.QueryRowContext(ctx, updateQuery, amount, now, userID).Scan(&account.ID, &account.UserID, &account.Balance, &account.UpdatedAt)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
				return
			}
			// the conditional update matched nothing: find out whether the
			// account is missing or the funds are
			var accountID string
			err = tx.QueryRowContext(ctx, "SELECT id FROM accounts WHERE user_id = $1", userID).Scan(&accountID)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				chanEr <- &storageErrors.NotFoundError{Err: err}
			case err != nil:
				chanEr <- &storageErrors.ScanningPSQLError{Err: err}
			default:
				chanEr <- &storageErrors.NotEnoughFundsError{}
			}
			return
		}
		transaction := modelstorage.TransactionStorageEntry{
			ID:        transactionID,
			AccountID: account.ID,
			Amount:    amount,
			Type:      transactionType,
			CreatedAt: now,
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO transactions (id, account_id, amount, type, created_at) VALUES ($1, $2, $3, $4, $5)",
			transaction.ID, transaction.AccountID, transaction.Amount, transaction.Type, transaction.CreatedAt)
		if err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		if err = tx.Commit(); err != nil {
			chanEr <- &storageErrors.ExecutionPSQLError{Err: err}
			return
		}
		chanOk <- mutationResult{account: account, transaction: transaction}
	}()

	select {
	case <-ctx.Done():
		s.log.Error().Err(ctx.Err()).Msg(fmt.Sprintf("%s failed for user %s", transactionType, userID))
		return modelstorage.AccountStorageEntry{}, modelstorage.TransactionStorageEntry{}, &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case methodErr := <-chanEr:
		s.log.Error().Err(methodErr).Msg(fmt.Sprintf("%s failed for user %s", transactionType, userID))
		return modelstorage.AccountStorageEntry{}, modelstorage.TransactionStorageEntry{}, methodErr
	case result := <-chanOk:
		s.log.Info().Msg(fmt.Sprintf("%s done for user %s", transactionType, userID))
		return result.account, result.transaction, nil
	}
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	query := `CREATE TABLE IF NOT EXISTS users (
		id            UUID        NOT NULL PRIMARY KEY,
		email         TEXT        NOT NULL UNIQUE,
		full_name     TEXT        NOT NULL,
		password_hash TEXT        NOT NULL,
		role          TEXT        NOT NULL DEFAULT 'CUSTOMER' CHECK (role IN ('CUSTOMER', 'ADMIN')),
		registered_at TIMESTAMPTZ NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS devices (
		id                UUID        NOT NULL PRIMARY KEY,
		user_id           UUID        NOT NULL,
		device_identifier TEXT        NOT NULL,
		status            TEXT        NOT NULL CHECK (status IN ('PENDING', 'VERIFIED', 'REJECTED')),
		created_at        TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, device_identifier)
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS accounts (
		id         UUID           NOT NULL PRIMARY KEY,
		user_id    UUID           NOT NULL UNIQUE,
		balance    NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		updated_at TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	query = `CREATE TABLE IF NOT EXISTS transactions (
		id         UUID           NOT NULL PRIMARY KEY,
		account_id UUID           NOT NULL,
		amount     NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
		type       TEXT           NOT NULL CHECK (type IN ('DEPOSIT', 'WITHDRAWAL')),
		created_at TIMESTAMPTZ    NOT NULL
	);`
	queries = append(queries, query)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return err
		}
	}
	return nil
}
