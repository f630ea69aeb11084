package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { auth.HashCost = bcrypt.MinCost }

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.NoError(t, auth.CheckPassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
}

func TestIssueAndParse(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	tok, exp, err := m.Issue(domain.User{ID: "u1", RoleName: "manager"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	p, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, domain.Manager{}, p.Role)
	assert.True(t, p.Can(domain.CapManageCampaigns))
	assert.False(t, p.Can(domain.CapManageUsers))
}

func TestParseRejects(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	tok, _, err := m.Issue(domain.User{ID: "u1", RoleName: "viewer"})
	require.NoError(t, err)

	_, err = auth.NewManager("other-secret", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	late := auth.NewManager("test-secret", time.Hour)
	late.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = late.Parse(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": "admin", "iss": "voucher-console"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(unsigned)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	tok, _, err := m.Issue(domain.User{ID: "u1", RoleName: "admin"})
	require.NoError(t, err)
	p, err := m.Parse(tok)
	require.NoError(t, err)

	m.Revoke(*p)
	_, err = m.Parse(tok)
	assert.ErrorIs(t, err, auth.ErrRevoked)

	assert.Equal(t, 0, m.PruneRevoked())
	m.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	assert.Equal(t, 1, m.PruneRevoked())
}

func TestMiddlewareAndRequire(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	h := m.Middleware(auth.Require(domain.CapManageVouchers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(p.UserID))
	})))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/vouchers", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer junk").Code)

	viewer, _, _ := m.Issue(domain.User{ID: "v1", RoleName: "viewer"})
	assert.Equal(t, http.StatusForbidden, do("Bearer "+viewer).Code)

	manager, _, _ := m.Issue(domain.User{ID: "m1", RoleName: "manager"})
	rec := do("bearer " + manager)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1", rec.Body.String())
}

func TestLoginLimiter(t *testing.T) {
	l := auth.NewLoginLimiter(1, 3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "attempt %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}
