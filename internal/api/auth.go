package api

import (
	"errors"
	"net/http"
	"pamekids-service/internal/api/handlers"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const RoleAdmin = "admin"

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs an HS256 token carrying the admin role.
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("issue admin token: empty secret")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseAdminToken(tokenString, secret string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// requireAdmin admits requests bearing a valid token with the admin role.
// A missing or unverifiable token is 401; a valid token without the role is 403.
// With no secret configured every admin request is refused.
func requireAdmin(secret string, log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret == "" {
			handlers.WriteError(w, r, http.StatusForbidden, "admin access is disabled")
			return
		}

		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			handlers.WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := parseAdminToken(parts[1], secret)
		if err != nil {
			log.Debug("rejected admin token", zap.Error(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			handlers.WriteError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != RoleAdmin {
			log.Warn("non-admin token on admin route", zap.String("sub", claims.Subject), zap.String("path", r.URL.Path))
			handlers.WriteError(w, r, http.StatusForbidden, "permission denied")
			return
		}

		next.ServeHTTP(w, r)
	})
}
