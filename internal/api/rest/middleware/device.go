package middleware

import (
	"context"
	"errors"
	"net/http"
)

// DeviceVerifier defines the device gate subset the middleware needs.
type DeviceVerifier interface {
	IsVerified(ctx context.Context, userID, deviceIdentifier string) (bool, error)
}

// DeviceHandler sets object structure.
type DeviceHandler struct {
	gate DeviceVerifier
}

// NewDeviceHandler initializes a new device handler.
func NewDeviceHandler(gate DeviceVerifier) (*DeviceHandler, error) {
	if gate == nil {
		return nil, errors.New("nil device gate object was found")
	}
	return &DeviceHandler{gate: gate}, nil
}

// DeviceHandle re-checks the device gate on every request. The identifier is
// taken from the Device-Id header, never cached from login time. It must run
// after TokenHandle.
func (c *DeviceHandler) DeviceHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		deviceID := r.Header.Get("Device-Id")
		if deviceID == "" {
			http.Error(w, "Device ID required", http.StatusBadRequest)
			return
		}
		verified, err := c.gate.IsVerified(r.Context(), claims.UserID, deviceID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !verified {
			http.Error(w, "Device not verified", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
