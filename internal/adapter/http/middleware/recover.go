package middleware

import (
	"fmt"
	"net/http"

	"github.com/Temutjin2k/taxi-dispatch/internal/adapter/http/handler"
)

func (app *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if panic := recover(); panic != nil {
				app.log.Error(r.Context(), "panic recovered", fmt.Errorf("%v", panic), "path", r.URL.Path)
				w.Header().Set("Connection", "close")
				handler.ErrorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
