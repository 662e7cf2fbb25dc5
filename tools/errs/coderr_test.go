package errs

import (
	"net/http"
	"testing"

	pkgerr "github.com/pkg/errors"
)

func TestWithDetailDoesNotMutateShared(t *testing.T) {
	e := ErrValidation.WithDetail("field missing")
	if ErrValidation.Detail != "" {
		t.Fatal("WithDetail mutated the shared predeclared error")
	}
	if e.Detail != "field missing" {
		t.Fatalf("detail = %q", e.Detail)
	}
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := ErrStorage.WrapMsg("insert failed")
	if !ErrStorage.Is(err) {
		t.Fatal("wrapped storage error not recognized")
	}
	if ErrAuth.Is(err) {
		t.Fatal("storage error matched auth")
	}

	deep := pkgerr.Wrap(err, "outer context")
	if !ErrStorage.Is(deep) {
		t.Fatal("doubly wrapped error not recognized")
	}
}

func TestHTTPMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{ErrValidation.WrapMsg("x"), http.StatusBadRequest},
		{ErrAuth.WrapMsg("x"), http.StatusUnauthorized},
		{ErrNotFound.WrapMsg("x"), http.StatusNotFound},
		{ErrConflict.WrapMsg("x"), http.StatusConflict},
		{ErrStorage.WrapMsg("x"), http.StatusInternalServerError},
		{ErrUpload.WrapMsg("x"), http.StatusBadGateway},
		{pkgerr.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, msg := HTTP(tc.err)
		if code != tc.code {
			t.Fatalf("HTTP(%v) code = %d, want %d", tc.err, code, tc.code)
		}
		if msg == "" {
			t.Fatalf("HTTP(%v) returned empty message", tc.err)
		}
	}
}

func TestHTTPHidesInternalDetail(t *testing.T) {
	_, msg := HTTP(ErrStorage.WithDetail("mongo: connection refused to 10.0.0.3"))
	if msg != ErrStorage.Msg {
		t.Fatalf("client message leaked detail: %q", msg)
	}
}
