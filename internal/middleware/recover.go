package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/image-caption/internal/logger"
)

// Recoverer turns a handler panic into the generic 500 body.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.WithFields(logrus.Fields{
				"panic":      rec,
				"request_id": GetRequestID(r.Context()),
				"stack":      string(debug.Stack()),
			}).Error("handler panic")
			WriteError(w, http.StatusInternalServerError,
				"Internal server error", "Something went wrong processing your request")
		}()
		next.ServeHTTP(w, r)
	})
}
