package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"content_trans_api/config"
	"content_trans_api/models/models"
	responsex "content_trans_api/pkg/response"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

var OperatorIDContextKey = contextKey("operatorID")

var secretKey = []byte(config.Cfg.Auth.Jwt)

// Operator authenticates human-facing endpoints with an HMAC-signed
// access token. The subject claim identifies the operator for the request
// activity log.
func Operator() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access_token := r.Header.Get("access_token")

			token, err := jwt.Parse(access_token, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secretKey, nil
			})
			if err != nil {
				responsex.RespondWithJSON(w, http.StatusUnauthorized, models.Response{
					Code: http.StatusUnauthorized,
					Msg:  err.Error(),
					Data: map[string]interface{}{},
				})
				return
			}

			var operatorID string
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				operatorID, _ = claims["sub"].(string)
			}

			ctx := context.WithValue(r.Context(), OperatorIDContextKey, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Callback authenticates inbound provider notifications with the shared
// callback token. Providers cannot carry operator JWTs.
func Callback() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Callback-Token")
			expected := config.Cfg.Auth.CallbackToken
			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				responsex.RespondWithJSON(w, http.StatusUnauthorized, models.Response{
					Code: http.StatusUnauthorized,
					Msg:  "Invalid callback token",
					Data: map[string]interface{}{},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetOperatorIDFromContext returns the authenticated operator, or "".
func GetOperatorIDFromContext(r *http.Request) string {
	operatorID, ok := r.Context().Value(OperatorIDContextKey).(string)
	if !ok {
		return ""
	}
	return operatorID
}
