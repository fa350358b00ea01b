// Package csrf issues and checks anti-forgery tokens bound to the client's
// session cookie.
//
// A token is an HS256 JWT whose "sid" claim is the SHA-256 of the cookie
// value it was issued for, so it stops validating as soon as the cookie
// changes (login, logout).
package csrf

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims and the bound session digest.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

type Service struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewService(secret []byte, validity time.Duration) *Service {
	return &Service{secret: secret, validity: validity, now: time.Now}
}

// Issue returns a token bound to sessionToken.
func (s *Service) Issue(sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", errors.New("csrf: empty session token")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.validity)),
		},
		SessionID: common.HashToken(sessionToken),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Validate checks that csrfToken is authentic, unexpired and bound to
// sessionToken. Every failure wraps common.ErrAntiForgeryRejected.
func (s *Service) Validate(sessionToken, csrfToken string) error {
	if sessionToken == "" || csrfToken == "" {
		return fmt.Errorf("%w: missing token", common.ErrAntiForgeryRejected)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(csrfToken, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrAntiForgeryRejected, err)
	}
	if !token.Valid {
		return fmt.Errorf("%w: invalid token", common.ErrAntiForgeryRejected)
	}

	want := common.HashToken(sessionToken)
	if subtle.ConstantTimeCompare([]byte(claims.SessionID), []byte(want)) != 1 {
		return fmt.Errorf("%w: session mismatch", common.ErrAntiForgeryRejected)
	}

	return nil
}

// ValidateRequest is a no-op for safe methods. Otherwise it reads the token
// from the X-CSRF-TOKEN header or the _csrf form field and validates it.
func (s *Service) ValidateRequest(r *http.Request, sessionToken string) error {
	if IsSafeMethod(r.Method) {
		return nil
	}
	return s.Validate(sessionToken, TokenFromRequest(r))
}

// TokenFromRequest prefers the header over the form field.
func TokenFromRequest(r *http.Request) string {
	if v := r.Header.Get(common.CSRFHeaderName); v != "" {
		return v
	}
	return r.PostFormValue(common.CSRFFieldName)
}

// IsSafeMethod reports whether the HTTP method is considered safe (read-only).
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
