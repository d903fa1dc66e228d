// Package operator authenticates console operators with a shared token and
// records which operator is acting. Identity itself is issued elsewhere.
package operator

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	id "examboard/pkg/domain"
	"examboard/pkg/platform/middleware/request"
	"examboard/pkg/requestcontext"
)

const (
	HeaderToken      = "X-Operator-Token"
	HeaderOperatorID = "X-Operator-ID"
)

// Require rejects requests without the expected token or a valid operator ID.
func Require(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get(HeaderToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "operator token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				writeUnauthorized(w, "operator token required")
				return
			}

			operatorID, err := id.ParseOperatorID(r.Header.Get(HeaderOperatorID))
			if err != nil {
				writeUnauthorized(w, "operator id required")
				return
			}

			ctx = requestcontext.WithOperatorID(ctx, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + desc + `"}`))
}
