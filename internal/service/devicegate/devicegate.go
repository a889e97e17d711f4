// Package devicegate restricts authenticated actions to administrator-approved
// devices.
package devicegate

import (
	"context"
	"errors"
	"time"

	"github.com/savlev/go-savings/internal/models/modeldto"
	"github.com/savlev/go-savings/internal/models/modelstorage"
	"github.com/savlev/go-savings/internal/storage"
	storageErrors "github.com/savlev/go-savings/internal/storage/errors"
)

// Gate answers whether a (user, device) pair may transact and applies
// administrative verdicts to pending devices.
type Gate struct {
	storage storage.DeviceRegistry
}

// InitGate initializes a device gate.
func InitGate(st storage.DeviceRegistry) (*Gate, error) {
	if st == nil {
		return nil, errors.New("nil storage was passed to device gate initializer")
	}
	return &Gate{storage: st}, nil
}

// IsVerified reports whether a device row exists for the exact pair with a
// VERIFIED status. An absent row and a pending or rejected row are deliberately
// indistinguishable to the caller.
func (g *Gate) IsVerified(ctx context.Context, userID, deviceIdentifier string) (bool, error) {
	status, err := g.storage.GetDeviceStatus(ctx, userID, deviceIdentifier)
	if err != nil {
		var notFoundError *storageErrors.NotFoundError
		if errors.As(err, &notFoundError) {
			return false, nil
		}
		return false, err
	}
	return status == modelstorage.DeviceStatusVerified, nil
}

// PendingDevices lists devices awaiting an administrative verdict.
func (g *Gate) PendingDevices(ctx context.Context) ([]modeldto.Device, error) {
	entries, err := g.storage.GetPendingDevices(ctx)
	if err != nil {
		return nil, err
	}
	devices := make([]modeldto.Device, 0, len(entries))
	for _, entry := range entries {
		devices = append(devices, modeldto.Device{
			ID:               entry.ID,
			UserID:           entry.UserID,
			DeviceIdentifier: entry.DeviceIdentifier,
			Status:           string(entry.Status),
			CreatedAt:        entry.CreatedAt.Format(time.RFC3339),
		})
	}
	return devices, nil
}

// ApplyVerdict transitions a pending device to VERIFIED or REJECTED. Both
// target states are terminal.
func (g *Gate) ApplyVerdict(ctx context.Context, deviceID string, status string) error {
	verdict := modelstorage.DeviceStatus(status)
	if verdict != modelstorage.DeviceStatusVerified && verdict != modelstorage.DeviceStatusRejected {
		return &IllegalVerdictError{Status: status}
	}
	return g.storage.SetDeviceStatus(ctx, deviceID, verdict)
}

// IllegalVerdictError reports a verdict outside the closed status set.
type IllegalVerdictError struct {
	Status string
}

func (e *IllegalVerdictError) Error() string {
	return e.Status + ": not a legal device verdict"
}
