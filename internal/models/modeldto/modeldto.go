// Package modeldto provides types for data transfer between the core services
// and their callers.
package modeldto

import "github.com/shopspring/decimal"

type (
	RegisterRequest struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Password string `json:"password"`
	}
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	// User carries the non-sensitive user attributes returned on login.
	// The password hash never appears here.
	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	LoginResponse struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	AmountRequest struct {
		Amount decimal.Decimal `json:"amount"`
	}
	Transaction struct {
		ID        string          `json:"id"`
		Amount    decimal.Decimal `json:"amount"`
		Type      string          `json:"type"`
		CreatedAt string          `json:"created_at"`
	}
	// AccountDetails lists transactions newest-first.
	AccountDetails struct {
		Balance      decimal.Decimal `json:"balance"`
		UpdatedAt    string          `json:"last_updated"`
		Transactions []Transaction   `json:"transactions"`
	}
	MutationResponse struct {
		Balance     decimal.Decimal `json:"balance"`
		Transaction Transaction     `json:"transaction"`
	}
	Device struct {
		ID               string `json:"id"`
		UserID           string `json:"user_id"`
		DeviceIdentifier string `json:"device_identifier"`
		Status           string `json:"status"`
		CreatedAt        string `json:"created_at"`
	}
	DeviceVerdictRequest struct {
		DeviceID string `json:"device_id"`
		Status   string `json:"status"`
	}
)
