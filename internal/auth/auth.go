package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Totarae/golinks/internal/model"
)

const bearerPrefix = "Bearer "

// Auth проверяет статический bearer-токен. Выдачей и ротацией токенов не занимается.
type Auth struct {
	digest  [sha256.Size]byte
	enabled bool
}

// New создаёт проверку токена. Пустой token отключает авторизацию.
func New(token string) *Auth {
	if token == "" {
		return &Auth{}
	}
	return &Auth{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// Enabled сообщает, задан ли токен.
func (a *Auth) Enabled() bool {
	return a.enabled
}

// Valid проверяет заголовок Authorization.
func (a *Auth) Valid(r *http.Request) bool {
	if !a.enabled {
		return true
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return false
	}
	// сравниваем хэши, чтобы время не зависело от длины токена
	got := sha256.Sum256([]byte(strings.TrimPrefix(header, bearerPrefix)))
	return subtle.ConstantTimeCompare(got[:], a.digest[:]) == 1
}

// Middleware отклоняет запросы без верного токена с кодом 401.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Valid(r) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="golinks"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
