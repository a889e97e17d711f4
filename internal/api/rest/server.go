// Package rest provides functionality for initializing a server.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"

	"github.com/savlev/go-savings/internal/api/rest/handlers"
	"github.com/savlev/go-savings/internal/api/rest/middleware"
	"github.com/savlev/go-savings/internal/config"
	"github.com/savlev/go-savings/internal/service/auth"
	"github.com/savlev/go-savings/internal/service/devicegate"
	"github.com/savlev/go-savings/internal/service/hasher"
	"github.com/savlev/go-savings/internal/service/ledger"
	"github.com/savlev/go-savings/internal/service/secretary"
	"github.com/savlev/go-savings/internal/storage/inpsql"
)

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (server *http.Server, err error) {
	// initialize secretary
	secretaryService, err := secretary.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize hasher
	hasherService, err := hasher.NewHasher(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize storage
	st, err := inpsql.InitStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}

	// initialize device gate
	gate, err := devicegate.InitGate(st)
	if err != nil {
		return nil, err
	}

	// initialize engines
	authService, err := auth.InitService(st, hasherService, secretaryService, gate)
	if err != nil {
		return nil, err
	}
	ledgerService, err := ledger.InitService(st)
	if err != nil {
		return nil, err
	}

	// initialize middleware
	tokenHandler, err := middleware.NewTokenHandler(secretaryService)
	if err != nil {
		return nil, err
	}
	deviceHandler, err := middleware.NewDeviceHandler(gate)
	if err != nil {
		return nil, err
	}

	// initialize handlers
	urlHandler, err := handlers.InitHandlers(authService, ledgerService, gate, log)
	if err != nil {
		return nil, err
	}

	// initialize server and set routing
	r := chi.NewRouter()
	r.Use(chiMiddleware.Compress(5))
	loginGroup := r.Group(nil)
	accountGroup := r.Group(nil)
	adminGroup := r.Group(nil)
	// authentication via token is not used for login/register routes
	accountGroup.Use(tokenHandler.TokenHandle)
	// money-moving routes re-check the device gate on every request
	accountGroup.Use(deviceHandler.DeviceHandle)
	adminGroup.Use(tokenHandler.TokenHandle)
	adminGroup.Use(tokenHandler.AdminHandle)
	loginGroup.Post("/api/user/register", urlHandler.HandleRegister())
	loginGroup.Post("/api/user/login", urlHandler.HandleLogin())
	accountGroup.Get("/api/user/account", urlHandler.HandleGetAccount())
	accountGroup.Post("/api/user/account/deposit", urlHandler.HandleDeposit())
	accountGroup.Post("/api/user/account/withdraw", urlHandler.HandleWithdraw())
	adminGroup.Get("/api/admin/devices", urlHandler.HandleGetPendingDevices())
	adminGroup.Post("/api/admin/devices/verify", urlHandler.HandleDeviceVerdict())

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}
