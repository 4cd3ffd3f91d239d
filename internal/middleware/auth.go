package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName — cookie с токеном для браузерного UI.
const AuthCookieName = "auth_token"

// TokenTTL — срок жизни токенов, выпущенных IssueToken.
const TokenTTL = 24 * time.Hour

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

// ErrNoToken — в запросе нет токена.
var ErrNoToken = errors.New("no auth token")

// tokenFromRequest берёт токен из Authorization: Bearer или из cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok && t != "" {
			return t, nil
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", ErrNoToken
}

// ParseToken проверяет подпись (HS256) и срок действия, возвращает subject.
func ParseToken(tokenStr, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// IssueToken выпускает токен для userID. Нужен CLI и тестам; в браузере токен
// выдаёт внешний провайдер.
func IssueToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// SetLoginCookie выпускает токен и кладёт его в HttpOnly cookie.
func SetLoginCookie(w http.ResponseWriter, userID, secret string) error {
	token, err := IssueToken(userID, secret, TokenTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(TokenTTL),
	})
	return nil
}

// WithAuth кладёт user id и исходный токен в контекст, если токен валиден.
// Запрос без токена или с невалидным токеном проходит анонимно.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := tokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), tokenKey, tokenStr)
			if secret != "" {
				uid, err := ParseToken(tokenStr, secret)
				if err != nil {
					logger.Debugw("invalid auth token", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				ctx = context.WithValue(ctx, userIDKey, uid)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth отвечает 401, если WithAuth не нашёл пользователя.
// При пустом secret проверка выключена.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := GetUserIDFromContext(r.Context()); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext возвращает id пользователя из контекста.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok
}

// GetTokenFromContext возвращает исходный bearer-токен для проброса во внешние сервисы.
func GetTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
