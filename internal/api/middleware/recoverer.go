package middleware

import (
	"assignment_desk/internal/common"
	"net/http"

	"github.com/pkg/errors"
)

// Recoverer turns a panic into the generic 500 body. With debug set the
// body carries the stack of the recovery point.
func Recoverer(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				err := errors.Errorf("panic: %v", rvr)
				common.RespondWithInternalError(w, r.Method+" "+r.URL.Path, err, debug)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
