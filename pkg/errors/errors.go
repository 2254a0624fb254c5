package errors

import "errors"

var (
	// ErrInvalidToken covers malformed, badly signed, expired and revoked
	// tokens alike so a caller cannot probe which of them happened.
	ErrInvalidToken         = errors.New("token is invalid or expired")
	ErrAccessTokenRequired  = errors.New("access token required")
	ErrRefreshTokenRequired = errors.New("refresh token required")

	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user with this email already exists")
	ErrAccountNotVerified     = errors.New("account not verified")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAlreadyVerified        = errors.New("account already verified")
	ErrCooldownActive         = errors.New("email cooldown active")
	ErrInvalidLinkToken       = errors.New("link token is invalid or expired")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrInvalidState           = errors.New("invalid or expired state")
	ErrNilUser                = errors.New("user is nil")
	ErrInternal               = errors.New("internal error")
)
