package custom_err

import "errors"

var (
	// Ledger errors
	ErrNotFound          = errors.New("resource not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyExists     = errors.New("resource already exists")

	// Pipeline errors
	ErrTooBusy              = errors.New("server is too busy, please try again later")
	ErrAlreadyRunning       = errors.New("pipeline is already running")
	ErrNotRunning           = errors.New("pipeline is not running")
	ErrStopping             = errors.New("pipeline is still stopping")
	ErrInvalidTransition    = errors.New("invalid transfer state transition")
	ErrUnknownTransferState = errors.New("unknown transfer state")

	// Auth errors
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotActive = errors.New("token not active yet")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Transfer validation errors
	ErrSourceRequired        = errors.New("source account id must be provided")
	ErrTargetRequired        = errors.New("target account id must be provided")
	ErrSourceNotFound        = errors.New("source account not found")
	ErrTargetNotFound        = errors.New("target account not found")
	ErrNonPositiveAmount     = errors.New("transfer must be a positive decimal number")
	ErrInsufficientBalance   = errors.New("insufficient account balance to execute transfer")
	ErrSameAccount           = errors.New("source and target accounts must not be the same")
	ErrNegativeInitialAmount = errors.New("account must have positive balance")
)
