package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/arkabuild/interioquote/internal/seed"
)

const sessionCookieName = "interioquote_session"

// session identifies the authenticated user of a request.
type session struct {
	Email string
	Role  string
}

type authService struct {
	db            *sql.DB
	sessionSecret []byte
}

func newAuthService(db *sql.DB, sessionSecret string) *authService {
	return &authService{db: db, sessionSecret: []byte(sessionSecret)}
}

// validateCredentials checks a login attempt and returns the user's role.
func (a *authService) validateCredentials(email, password string) (string, bool, error) {
	var passwordHash, role string
	err := a.db.QueryRow(`SELECT password_hash, role FROM users WHERE email = ?`, email).Scan(&passwordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query user credentials: %w", err)
	}

	providedHash := seed.HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(passwordHash), []byte(providedHash)) == 1 {
		return role, true, nil
	}

	return "", false, nil
}

func (a *authService) createSessionValue(s session) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(s.Email + "|" + s.Role))
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (a *authService) verifySessionValue(value string) (session, bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return session{}, false
	}

	payload := parts[0]
	signature := parts[1]

	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return session{}, false
	}
	if !hmac.Equal(provided, expected) {
		return session{}, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return session{}, false
	}

	email, role, ok := strings.Cut(string(decoded), "|")
	if !ok || email == "" {
		return session{}, false
	}

	return session{Email: email, Role: role}, true
}

func (a *authService) setSessionCookie(w http.ResponseWriter, s session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(s),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionFromRequest(r *http.Request, auth *authService) (session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return session{}, false
	}
	return auth.verifySessionValue(cookie.Value)
}
