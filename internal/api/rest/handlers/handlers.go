// Package handlers provides API endpoint handling functionality.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	handlersErrors "github.com/savlev/go-savings/internal/api/rest/errors"
	"github.com/savlev/go-savings/internal/api/rest/middleware"
	"github.com/savlev/go-savings/internal/models/modeldto"
	authErrors "github.com/savlev/go-savings/internal/service/auth/errors"
	"github.com/savlev/go-savings/internal/service/devicegate"
	ledgerErrors "github.com/savlev/go-savings/internal/service/ledger/errors"
	storageErrors "github.com/savlev/go-savings/internal/storage/errors"
)

// AuthProcessor defines the auth engine subset the handlers need.
type AuthProcessor interface {
	Register(ctx context.Context, request modeldto.RegisterRequest, deviceIdentifier string) error
	Login(ctx context.Context, request modeldto.LoginRequest, deviceIdentifier string) (*modeldto.LoginResponse, error)
}

// LedgerProcessor defines the ledger engine subset the handlers need.
type LedgerProcessor interface {
	GetStatement(ctx context.Context, userID string) (*modeldto.AccountDetails, error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error)
}

// DeviceAdmin defines the device gate subset the admin handlers need.
type DeviceAdmin interface {
	PendingDevices(ctx context.Context) ([]modeldto.Device, error)
	ApplyVerdict(ctx context.Context, deviceID string, status string) error
}

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	auth    AuthProcessor
	ledger  LedgerProcessor
	devices DeviceAdmin
	log     *zerolog.Logger
}

// InitHandlers initializes a handler object.
func InitHandlers(auth AuthProcessor, ledger LedgerProcessor, devices DeviceAdmin, log *zerolog.Logger) (*Handler, error) {
	if auth == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil auth service was passed to handlers initializer"}
	}
	if ledger == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil ledger service was passed to handlers initializer"}
	}
	if devices == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil device service was passed to handlers initializer"}
	}
	return &Handler{auth: auth, ledger: ledger, devices: devices, log: log}, nil
}

// HandleRegister processes user register requests.
func (h *Handler) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		deviceID := r.Header.Get("Device-Id")
		if deviceID == "" {
			http.Error(w, "Device ID required", http.StatusBadRequest)
			return
		}
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.RegisterRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if request.Email == "" || request.FullName == "" || request.Password == "" {
			h.log.Error().Msg("HandleRegister failed")
			http.Error(w, "Empty values are not allowed", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new user register request detected for %s", request.Email))
		err = h.auth.Register(ctx, request, deviceID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var alreadyExistsError *storageErrors.AlreadyExistsError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &alreadyExistsError) {
				w.WriteHeader(http.StatusConflict)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
	}
}

// HandleLogin processes user login requests.
func (h *Handler) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		deviceID := r.Header.Get("Device-Id")
		if deviceID == "" {
			http.Error(w, "Device ID required", http.StatusBadRequest)
			return
		}
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.LoginRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if request.Email == "" || request.Password == "" {
			h.log.Error().Msg("HandleLogin failed")
			http.Error(w, "Empty values are not allowed", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new login request detected for %s", request.Email))
		response, err := h.auth.Login(ctx, request, deviceID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var invalidCredentialsError *authErrors.InvalidCredentialsError
			var deviceNotVerifiedError *authErrors.DeviceNotVerifiedError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &invalidCredentialsError) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
			} else if errors.As(err, &deviceNotVerifiedError) {
				http.Error(w, err.Error(), http.StatusForbidden)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, response)
	}
}

// HandleGetAccount processes account statement requests.
func (h *Handler) HandleGetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		statement, err := h.ledger.GetStatement(ctx, claims.UserID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetAccount failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notFoundError *storageErrors.NotFoundError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &notFoundError) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, statement)
	}
}

// HandleDeposit processes deposit requests.
func (h *Handler) HandleDeposit() http.HandlerFunc {
	return h.handleMutation("HandleDeposit", func(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error) {
		return h.ledger.Deposit(ctx, userID, amount)
	})
}

// HandleWithdraw processes withdrawal requests.
func (h *Handler) HandleWithdraw() http.HandlerFunc {
	return h.handleMutation("HandleWithdraw", func(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error) {
		return h.ledger.Withdraw(ctx, userID, amount)
	})
}

func (h *Handler) handleMutation(name string, mutate func(ctx context.Context, userID string, amount decimal.Decimal) (*modeldto.MutationResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg(fmt.Sprintf("%s failed", name))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.AmountRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg(fmt.Sprintf("%s failed", name))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("%s request detected for user %s", name, claims.UserID))
		response, err := mutate(ctx, claims.UserID, request.Amount)
		if err != nil {
			h.log.Error().Err(err).Msg(fmt.Sprintf("%s failed", name))
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var invalidAmountError *ledgerErrors.InvalidAmountError
			var notEnoughFundsError *storageErrors.NotEnoughFundsError
			var notFoundError *storageErrors.NotFoundError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &invalidAmountError) {
				http.Error(w, err.Error(), http.StatusBadRequest)
			} else if errors.As(err, &notEnoughFundsError) {
				http.Error(w, err.Error(), http.StatusPaymentRequired)
			} else if errors.As(err, &notFoundError) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.writeJSON(w, http.StatusOK, response)
	}
}

// HandleGetPendingDevices processes admin queries for devices awaiting a verdict.
func (h *Handler) HandleGetPendingDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		devices, err := h.devices.PendingDevices(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetPendingDevices failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		if len(devices) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeJSON(w, http.StatusOK, devices)
	}
}

// HandleDeviceVerdict processes admin device verification verdicts.
func (h *Handler) HandleDeviceVerdict() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeviceVerdict failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.DeviceVerdictRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeviceVerdict failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("device verdict %s requested for %s", request.Status, request.DeviceID))
		err = h.devices.ApplyVerdict(ctx, request.DeviceID, request.Status)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeviceVerdict failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notFoundError *storageErrors.NotFoundError
			var illegalVerdictError *devicegate.IllegalVerdictError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &notFoundError) {
				http.Error(w, err.Error(), http.StatusNotFound)
			} else if errors.As(err, &illegalVerdictError) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	resBody, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("response marshalling failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(resBody)
	if err != nil {
		h.log.Error().Err(err).Msg("response writing failed")
	}
}
