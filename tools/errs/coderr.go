package errs

import (
	"errors"
	"strconv"
	"strings"

	pkgerr "github.com/pkg/errors"
)

// CodeError is the error currency of the REST surface. Code doubles as the
// HTTP status the handler layer responds with; Msg is safe for clients.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra detail; the receiver is shared
// package state and must not be mutated.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

// WrapMsg attaches detail and a stack so the origin shows up in logs.
func (e *CodeError) WrapMsg(msg string) error {
	return pkgerr.WithStack(e.WithDetail(msg))
}

// Wrap attaches the cause's message as detail.
func (e *CodeError) Wrap(cause error) error {
	if cause == nil {
		return pkgerr.WithStack(e)
	}
	return pkgerr.WithStack(e.WithDetail(cause.Error()))
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Unwrap walks err down to a *CodeError if one is in the chain.
func Unwrap(err error) (*CodeError, bool) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
