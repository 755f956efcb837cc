// Package auth implements the signed session cookie and the request
// middleware that exposes the session to handlers.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

type ctxKey string

const (
	sessionCookieName = "session"
	sessionCtxKey     = ctxKey("session")
)

// Session is the authenticated state carried by the cookie: who the user is
// and whether they hold the admin role. A nil *Session means anonymous.
type Session struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
}

var secret = "devsessionsecret"

// SetSecret installs the signing key from the application config. An empty
// value keeps the current key.
func SetSecret(s string) {
	if s != "" {
		secret = s
	}
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie carrying the session fields.
func CreateSession(w http.ResponseWriter, s Session) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie signature and returns the session.
func ParseSession(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	dot := -1
	for i := len(c.Value) - 1; i >= 0; i-- {
		if c.Value[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return nil, false
	}
	payload, sig := c.Value[:dot], c.Value[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(sign(payload))) {
		return nil, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil || s.UserID == 0 {
		return nil, false
	}
	return &s, true
}

// WithSession stores the session in context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// FromContext extracts the session; nil when the request is anonymous.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey).(*Session)
	return s
}

// Middleware attaches the parsed session to the request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := ParseSession(r); ok {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}
