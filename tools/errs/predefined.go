package errs

import "net/http"

// Failure kinds of the chat surface. Recipient-offline is deliberately not
// here: a missed push is the expected steady state, not an error.
var (
	ErrValidation = NewCodeError(http.StatusBadRequest, "missing or malformed input")
	ErrAuth       = NewCodeError(http.StatusUnauthorized, "invalid credentials or token")
	ErrNotFound   = NewCodeError(http.StatusNotFound, "not found")
	ErrConflict   = NewCodeError(http.StatusConflict, "already exists")
	ErrStorage    = NewCodeError(http.StatusInternalServerError, "storage failure")
	ErrUpload     = NewCodeError(http.StatusBadGateway, "asset upload failure")
)
