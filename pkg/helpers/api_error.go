package helpers

import (
	"errors"
	"net/http"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthz
	KindNotFound
	KindBusinessRule
	KindUpstream
)

// APIError is the error shape returned to API callers as {code, msg}.
type APIError struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Kind ErrorKind `json:"-"`
}

func (e *APIError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Msg: msg, Kind: KindValidation}
}

func NewAuthzError(msg string) *APIError {
	return &APIError{Code: http.StatusUnauthorized, Msg: msg, Kind: KindAuthz}
}

func NewNotFoundError(msg string) *APIError {
	return &APIError{Code: http.StatusNotFound, Msg: msg, Kind: KindNotFound}
}

func NewBusinessRuleError(msg string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Msg: msg, Kind: KindBusinessRule}
}

func NewUpstreamError(msg string) *APIError {
	return &APIError{Code: http.StatusServiceUnavailable, Msg: msg, Kind: KindUpstream}
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
