package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired accepts verified access tokens and stores their claims on the
// request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			c := auth.Claims{Subject: token.Subject()}
			if id, ok := claims["employee_id"].(string); ok && id != "" {
				c.EmployeeID = &id
			}
			c.IsAdmin, _ = claims["is_admin"].(bool)

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), c)))
		}
		return http.HandlerFunc(hfn)
	}
}
