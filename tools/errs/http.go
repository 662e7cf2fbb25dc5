package errs

import "net/http"

// HTTP maps an error to the status code and client-safe message for the
// uniform {success:false, message} envelope. Unknown errors become 500 with
// a generic message; details stay in the server log.
func HTTP(err error) (int, string) {
	if ce, ok := Unwrap(err); ok {
		return ce.Code, ce.Msg
	}
	return http.StatusInternalServerError, "internal error"
}
