package middleware

import (
	"errors"
	"fmt"

	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"
	"gestly/internal/services"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	HeaderAPIKey = "x-api-key"

	tokenContextKey = "user"

	msgMissingCredentials = "Credenciais ausentes ou inválidas"
	msgInvalidAPIKey      = "Chave de API inválida"
)

// AuthConfig configures Authenticate. JWKS is optional and accepts tokens
// from an external identity provider; business and role are then resolved
// from the caller's profile.
type AuthConfig struct {
	JWTSecret string
	JWKS      *keyfunc.JWKS
	APIKeys   services.APIKeyService
	Profiles  repositories.ProfileRepository
}

// Authenticate accepts either an x-api-key header or a bearer token and
// stores the resulting common.Principal in the request context. Requests
// with neither are rejected with 401 before any handler runs.
func Authenticate(cfg AuthConfig) echo.MiddlewareFunc {
	bearer := echojwt.WithConfig(echojwt.Config{
		ContextKey:     tokenContextKey,
		ParseTokenFunc: cfg.parseToken,
		ErrorHandler: func(c echo.Context, err error) error {
			return common.Unauthorized(msgMissingCredentials)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withToken := bearer(cfg.principalFromToken(next))

		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderAPIKey)
			if raw == "" {
				return withToken(c)
			}

			key, err := cfg.APIKeys.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			if key == nil {
				return common.Unauthorized(msgInvalidAPIKey)
			}
			p := &common.Principal{
				BusinessID: key.BusinessID,
				Role:       models.RoleAdmin,
				Method:     common.AuthMethodAPIKey,
				APIKeyID:   key.ID,
			}
			c.SetRequest(c.Request().WithContext(common.WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// parseToken verifies a bearer token. HMAC tokens are the ones this API
// issues and must carry our issuer and audience; anything else must verify
// against the JWKS.
func (cfg AuthConfig) parseToken(c echo.Context, raw string) (interface{}, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(raw, new(services.TokenClaims))
	if err != nil {
		return nil, err
	}
	if _, ok := unverified.Method.(*jwt.SigningMethodHMAC); ok {
		_, token, err := services.ParseAccessToken(raw, []byte(cfg.JWTSecret))
		return token, err
	}

	if cfg.JWKS == nil {
		return nil, fmt.Errorf("unexpected signing method %s", unverified.Method.Alg())
	}
	token, err := jwt.ParseWithClaims(raw, new(services.TokenClaims), cfg.JWKS.Keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

func (cfg AuthConfig) principalFromToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return common.Unauthorized(msgMissingCredentials)
		}
		claims, ok := token.Claims.(*services.TokenClaims)
		if !ok {
			return common.Unauthorized(msgMissingCredentials)
		}

		subject := claims.UserID
		if subject == "" {
			subject = claims.Subject
		}
		userID, err := uuid.Parse(subject)
		if err != nil {
			return common.Unauthorized(msgMissingCredentials)
		}

		p := &common.Principal{UserID: userID, Role: claims.Role, Method: common.AuthMethodSession}
		if claims.BusinessID != "" {
			if p.BusinessID, err = uuid.Parse(claims.BusinessID); err != nil {
				return common.Unauthorized(msgMissingCredentials)
			}
		}

		// Provider tokens carry neither business nor role.
		if p.BusinessID == uuid.Nil || p.Role == "" {
			ctx := c.Request().Context()
			if p.BusinessID == uuid.Nil {
				p.BusinessID, err = cfg.Profiles.GetBusinessIDByUserID(ctx, userID)
				if err != nil {
					if repositories.IsNoRows(err) {
						return common.Unauthorized("Perfil não encontrado")
					}
					return fmt.Errorf("resolve business: %w", err)
				}
			}
			profile, err := cfg.Profiles.GetByID(ctx, p.BusinessID, userID)
			if err != nil {
				if repositories.IsNoRows(err) {
					return common.Unauthorized("Perfil não encontrado")
				}
				return fmt.Errorf("load profile: %w", err)
			}
			if !profile.Active {
				return common.Unauthorized("Perfil inativo")
			}
			p.Role = profile.Role
		}

		c.SetRequest(c.Request().WithContext(common.WithPrincipal(c.Request().Context(), p)))
		return next(c)
	}
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(c echo.Context) (*common.Principal, error) {
	p, ok := common.PrincipalFromContext(c.Request().Context())
	if !ok || p.BusinessID == uuid.Nil {
		return nil, common.Unauthorized(msgMissingCredentials)
	}
	return p, nil
}
