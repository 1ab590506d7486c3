package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"
	"gestly/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContext(principal *common.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		req = req.WithContext(common.WithPrincipal(req.Context(), principal))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, isApp := common.AsAppError(err)
	require.True(t, isApp, "expected AppError, got %v", err)
	return appErr.Status
}

func TestLocalRateLimiter(t *testing.T) {
	rl := NewRateLimiter(nil, 3, zap.NewNop())
	frozen := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return frozen }
	p := &common.Principal{BusinessID: uuid.New(), Method: common.AuthMethodSession}
	handler := rl.Middleware()(ok)

	for i := 0; i < 3; i++ {
		c, _ := newContext(p)
		require.NoError(t, handler(c), "request %d", i+1)
	}

	c, rec := newContext(p)
	err := handler(c)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(t, err))
	appErr, _ := common.AsAppError(err)
	assert.Greater(t, appErr.RetryAfter, time.Duration(0))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// Another business has its own budget.
	other, _ := newContext(&common.Principal{BusinessID: uuid.New()})
	assert.NoError(t, handler(other))

	// Tokens refill at perMinute per minute.
	frozen = frozen.Add(20 * time.Second)
	c, _ = newContext(p)
	assert.NoError(t, handler(c))
}

type failingCache struct {
	caching.CacheService
}

func (failingCache) HitWindow(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis: connection refused")
}

func TestRateLimiterFallsBackWhenCacheFails(t *testing.T) {
	rl := NewRateLimiter(failingCache{}, 1, zap.NewNop())
	p := &common.Principal{BusinessID: uuid.New()}
	handler := rl.Middleware()(ok)

	c, _ := newContext(p)
	require.NoError(t, handler(c))

	c, _ = newContext(p)
	assert.Equal(t, http.StatusTooManyRequests, statusOf(t, handler(c)))
}

func TestRateLimiterRequiresPrincipal(t *testing.T) {
	rl := NewRateLimiter(nil, 10, zap.NewNop())
	c, _ := newContext(nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, rl.Middleware()(ok)(c)))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{models.RoleOwner, http.StatusNoContent},
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleProfessional, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			c, rec := newContext(&common.Principal{BusinessID: uuid.New(), Role: tt.role})
			err := RequireRole(models.RoleOwner, models.RoleAdmin)(ok)(c)
			if tt.want == http.StatusNoContent {
				require.NoError(t, err)
				assert.Equal(t, tt.want, rec.Code)
				return
			}
			assert.Equal(t, tt.want, statusOf(t, err))
		})
	}
}

func TestSessionOnly(t *testing.T) {
	c, _ := newContext(&common.Principal{BusinessID: uuid.New(), Role: models.RoleAdmin, Method: common.AuthMethodAPIKey})
	assert.Equal(t, http.StatusForbidden, statusOf(t, SessionOnly()(ok)(c)))

	c, _ = newContext(&common.Principal{BusinessID: uuid.New(), Role: models.RoleOwner, Method: common.AuthMethodSession})
	assert.NoError(t, SessionOnly()(ok)(c))
}

func TestCountUsage(t *testing.T) {
	cache := caching.NewMemoryCacheService()
	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	nowUTC = func() time.Time { return day }
	t.Cleanup(func() { nowUTC = func() time.Time { return time.Now().UTC() } })

	bizID := uuid.New()
	p := &common.Principal{BusinessID: bizID}
	count := CountUsage(cache, zap.NewNop())

	c, _ := newContext(p)
	require.NoError(t, count(ok)(c))

	c, _ = newContext(p)
	assert.Error(t, count(func(echo.Context) error { return common.NotFound("") })(c))

	c, _ = newContext(p)
	require.NoError(t, count(func(c echo.Context) error { return c.NoContent(http.StatusBadRequest) })(c))

	used, err := cache.GetUsage(context.Background(), bizID, day)
	require.NoError(t, err)
	assert.EqualValues(t, 1, used)
}

type stubProfiles struct {
	repositories.ProfileRepository
	businessID uuid.UUID
	profile    *models.Profile
}

func (s stubProfiles) GetBusinessIDByUserID(context.Context, uuid.UUID) (uuid.UUID, error) {
	if s.profile == nil {
		return uuid.Nil, pgx.ErrNoRows
	}
	return s.businessID, nil
}

func (s stubProfiles) GetByID(context.Context, uuid.UUID, uuid.UUID) (*models.Profile, error) {
	if s.profile == nil {
		return nil, pgx.ErrNoRows
	}
	return s.profile, nil
}

func signed(t *testing.T, secret string, claims services.TokenClaims) string {
	t.Helper()
	claims.Issuer = services.TokenIssuer
	if claims.Audience == nil {
		claims.Audience = jwt.ClaimStrings{services.TokenAudience}
	}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authenticate(t *testing.T, cfg AuthConfig, header http.Header) (*common.Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header = header
	c := e.NewContext(req, httptest.NewRecorder())

	var got *common.Principal
	err := Authenticate(cfg)(func(c echo.Context) error {
		p, err := PrincipalFrom(c)
		got = p
		return err
	})(c)
	return got, err
}

func TestAuthenticateResolvesProfileForTokensWithoutBusiness(t *testing.T) {
	userID, bizID := uuid.New(), uuid.New()
	cfg := AuthConfig{
		JWTSecret: "secret",
		Profiles: stubProfiles{
			businessID: bizID,
			profile:    &models.Profile{ID: userID, BusinessID: bizID, Role: models.RoleProfessional, Active: true},
		},
	}
	token := signed(t, "secret", services.TokenClaims{UserID: userID.String()})

	p, err := authenticate(t, cfg, http.Header{echo.HeaderAuthorization: {"Bearer " + token}})

	require.NoError(t, err)
	assert.Equal(t, bizID, p.BusinessID)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, models.RoleProfessional, p.Role)
	assert.Equal(t, common.AuthMethodSession, p.Method)
}

func TestAuthenticateRejectsUnknownProfile(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "secret", Profiles: stubProfiles{}}
	token := signed(t, "secret", services.TokenClaims{UserID: uuid.NewString()})

	_, err := authenticate(t, cfg, http.Header{echo.HeaderAuthorization: {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestAuthenticateRejectsForeignIssuer(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "secret"}
	claims := services.TokenClaims{UserID: uuid.NewString(), BusinessID: uuid.NewString(), Role: models.RoleOwner}
	claims.Issuer = "someone-else"
	claims.Audience = jwt.ClaimStrings{services.TokenAudience}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = authenticate(t, cfg, http.Header{echo.HeaderAuthorization: {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestAuthenticateRejectsForeignAudience(t *testing.T) {
	cfg := AuthConfig{JWTSecret: "secret"}
	claims := services.TokenClaims{UserID: uuid.NewString(), BusinessID: uuid.NewString(), Role: models.RoleOwner}
	claims.Audience = jwt.ClaimStrings{"billing-api"}
	token := signed(t, "secret", claims)

	_, err := authenticate(t, cfg, http.Header{echo.HeaderAuthorization: {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestAuthenticateRejectsLocalTokensWithoutSecret(t *testing.T) {
	claims := services.TokenClaims{UserID: uuid.NewString(), BusinessID: uuid.NewString(), Role: models.RoleOwner}
	token := signed(t, "secret", claims)

	_, err := authenticate(t, AuthConfig{}, http.Header{echo.HeaderAuthorization: {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
