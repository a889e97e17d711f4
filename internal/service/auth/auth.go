// Package auth provides registration and login functionality guarded by the
// device gate.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/savlev/go-savings/internal/models/modeldto"
	"github.com/savlev/go-savings/internal/models/modelstorage"
	serviceErrors "github.com/savlev/go-savings/internal/service/auth/errors"
	"github.com/savlev/go-savings/internal/service/devicegate"
	"github.com/savlev/go-savings/internal/service/hasher"
	"github.com/savlev/go-savings/internal/service/secretary"
	"github.com/savlev/go-savings/internal/storage"
	storageErrors "github.com/savlev/go-savings/internal/storage/errors"
)

// Engine holds only injected dependencies, never mutable state.
type Engine struct {
	storage   storage.Registrar
	hasher    *hasher.Hasher
	secretary *secretary.Secretary
	gate      *devicegate.Gate
}

// InitService initializes the auth engine.
func InitService(st storage.Registrar, hs *hasher.Hasher, sec *secretary.Secretary, gate *devicegate.Gate) (*Engine, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if hs == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil hasher was passed to service initializer"}
	}
	if sec == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil secretary was passed to service initializer"}
	}
	if gate == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil device gate was passed to service initializer"}
	}
	return &Engine{storage: st, hasher: hs, secretary: sec, gate: gate}, nil
}

// Register creates a user, its zero-balance account and a pending device row
// for the presented device identifier. The three creations commit together or
// not at all.
func (e *Engine) Register(ctx context.Context, request modeldto.RegisterRequest, deviceIdentifier string) error {
	now := time.Now()
	userID := uuid.New().String()
	user := modelstorage.UserStorageEntry{
		ID:           userID,
		Email:        request.Email,
		FullName:     request.FullName,
		PasswordHash: e.hasher.Hash(request.Password),
		Role:         modelstorage.RoleCustomer,
		RegisteredAt: now,
	}
	account := modelstorage.AccountStorageEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Balance:   decimal.Zero,
		UpdatedAt: now,
	}
	device := modelstorage.DeviceStorageEntry{
		ID:               uuid.New().String(),
		UserID:           userID,
		DeviceIdentifier: deviceIdentifier,
		Status:           modelstorage.DeviceStatusPending,
		CreatedAt:        now,
	}
	return e.storage.AddNewUser(ctx, user, account, device)
}

// Login validates credentials, re-checks the device gate and issues a session
// token. An unknown email and a wrong password produce the same error. Login
// never registers devices: an unseen device identifier is simply not verified.
func (e *Engine) Login(ctx context.Context, request modeldto.LoginRequest, deviceIdentifier string) (*modeldto.LoginResponse, error) {
	user, err := e.storage.GetUserByEmail(ctx, request.Email)
	if err != nil {
		var notFoundError *storageErrors.NotFoundError
		if errors.As(err, &notFoundError) {
			return nil, &serviceErrors.InvalidCredentialsError{}
		}
		return nil, err
	}
	if !e.hasher.Verify(request.Password, user.PasswordHash) {
		return nil, &serviceErrors.InvalidCredentialsError{}
	}
	verified, err := e.gate.IsVerified(ctx, user.ID, deviceIdentifier)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, &serviceErrors.DeviceNotVerifiedError{}
	}
	token, err := e.secretary.NewToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &modeldto.LoginResponse{
		Token: token,
		User: modeldto.User{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		},
	}, nil
}
