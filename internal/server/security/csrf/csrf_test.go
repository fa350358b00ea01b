package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService([]byte("super-secret"), time.Hour)
}

func TestIssueAndValidate(t *testing.T) {
	t.Parallel()

	s := newTestService()
	tok, err := s.Issue("session-1")
	require.NoError(t, err)

	assert.NoError(t, s.Validate("session-1", tok))
}

func TestIssue_EmptySession(t *testing.T) {
	t.Parallel()

	_, err := newTestService().Issue("")
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	s := newTestService()
	tok, err := s.Issue("session-1")
	require.NoError(t, err)

	other := NewService([]byte("other-secret"), time.Hour)
	forged, err := other.Issue("session-1")
	require.NoError(t, err)

	expiredSvc := newTestService()
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredSvc.Issue("session-1")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		SessionID:        common.HashToken("session-1"),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name    string
		session string
		token   string
	}{
		{"missing token", "session-1", ""},
		{"missing session", "", tok},
		{"other session", "session-2", tok},
		{"wrong secret", "session-1", forged},
		{"expired", "session-1", expired},
		{"alg none", "session-1", unsigned},
		{"garbage", "session-1", "not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Validate(tc.session, tc.token)
			assert.ErrorIs(t, err, common.ErrAntiForgeryRejected)
		})
	}
}

func TestValidateRequest_SafeMethodsSkip(t *testing.T) {
	t.Parallel()

	s := newTestService()
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		r := httptest.NewRequest(m, "/", nil)
		assert.NoError(t, s.ValidateRequest(r, ""), m)
	}
}

func TestValidateRequest_FormField(t *testing.T) {
	t.Parallel()

	s := newTestService()
	tok, err := s.Issue("session-1")
	require.NoError(t, err)

	form := url.Values{common.CSRFFieldName: {tok}}
	r := httptest.NewRequest(http.MethodPost, "/logout", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	assert.NoError(t, s.ValidateRequest(r, "session-1"))
}

func TestValidateRequest_Header(t *testing.T) {
	t.Parallel()

	s := newTestService()
	tok, err := s.Issue("session-1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodDelete, "/x", nil)
	r.Header.Set(common.CSRFHeaderName, tok)

	assert.NoError(t, s.ValidateRequest(r, "session-1"))
}

func TestValidateRequest_PostWithoutToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	err := newTestService().ValidateRequest(r, "session-1")
	assert.ErrorIs(t, err, common.ErrAntiForgeryRejected)
}
