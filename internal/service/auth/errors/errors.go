// Package errors provides custom auth service error types.
package errors

type (
	ServiceFoundNilArgument struct {
		Msg string
	}
	// InvalidCredentialsError covers both an unknown email and a password
	// mismatch so that responses never leak which of the two failed.
	InvalidCredentialsError struct{}
	// DeviceNotVerifiedError covers both an unknown device and a device not
	// yet (or never) approved by an administrator.
	DeviceNotVerifiedError struct{}
)

func (e *ServiceFoundNilArgument) Error() string {
	return e.Msg
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid credentials"
}

func (e *DeviceNotVerifiedError) Error() string {
	return "device not verified"
}
