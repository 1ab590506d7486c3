package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gestly/internal/caching"
	"gestly/internal/common"
	"gestly/internal/models"
	"gestly/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "gestly-auth"
	TokenAudience = "gestly-api"

	msgEmailTaken         = "Email já cadastrado"
	msgInvalidCredentials = "Email ou senha inválidos"
	msgInvalidRefresh     = "Sessão expirada. Faça login novamente."
)

// AuthService handles registration and session tokens
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, businessID, userID uuid.UUID) (*MeResponse, error)
}

// TokenClaims represents JWT claims
type TokenClaims struct {
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id,omitempty"`
	Role       string `json:"role,omitempty"`
	TokenID    string `json:"token_id"`
	jwt.RegisteredClaims
}

type RegisterRequest struct {
	BusinessName string `json:"business_name"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	Timezone     string `json:"timezone"`
}

type RegisterResponse struct {
	ID       uuid.UUID             `json:"id"`
	Business *models.Business      `json:"business"`
	User     *models.Profile       `json:"user"`
	Tokens   *models.TokenResponse `json:"tokens"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeResponse struct {
	User     *models.Profile  `json:"user"`
	Business *models.Business `json:"business"`
}

type refreshSession struct {
	UserID     uuid.UUID `json:"user_id"`
	BusinessID uuid.UUID `json:"business_id"`
	Role       string    `json:"role"`
}

type authService struct {
	tx         repositories.Transactor
	profiles   repositories.ProfileRepository
	businesses repositories.BusinessRepository
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tx repositories.Transactor,
	profiles repositories.ProfileRepository,
	businesses repositories.BusinessRepository,
	cacheSvc caching.CacheService,
	jwtSecret string,
	accessTTL, refreshTTL time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		tx:         tx,
		profiles:   profiles,
		businesses: businesses,
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

func (r RegisterRequest) validate() error {
	details := map[string]string{}
	if strings.TrimSpace(r.BusinessName) == "" {
		details["business_name"] = "Nome do negócio é obrigatório"
	}
	if err := common.ValidateEmail(r.Email); err != nil {
		details["email"] = err.(*common.AppError).Message
	}
	if err := common.ValidatePassword(r.Password); err != nil {
		details["password"] = err.(*common.AppError).Message
	}
	if len(details) > 0 {
		return common.ValidationError("Dados inválidos", details)
	}
	return nil
}

// Register creates the business and its owner profile in one transaction.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req.Email = common.NormalizeEmail(req.Email)
	if err := req.validate(); err != nil {
		return nil, err
	}

	exists, err := s.profiles.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, common.FieldError("email", msgEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "America/Sao_Paulo"
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = strings.TrimSpace(req.BusinessName)
	}

	business := &models.Business{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.BusinessName),
		Email:    req.Email,
		Phone:    req.Phone,
		Timezone: timezone,
		Status:   "active",
	}
	owner := &models.Profile{
		ID:           uuid.New(),
		BusinessID:   business.ID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleOwner,
		Active:       true,
	}

	err = s.tx.WithinTx(ctx, func(tx *repositories.Store) error {
		if err := tx.Businesses.Create(ctx, business); err != nil {
			return fmt.Errorf("create business: %w", err)
		}
		if err := tx.Profiles.Create(ctx, owner); err != nil {
			if repositories.IsUniqueViolation(err) {
				return common.FieldError("email", msgEmailTaken)
			}
			return fmt.Errorf("create owner profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("business registered", zap.String("business_id", business.ID.String()), zap.String("user_id", owner.ID.String()))

	tokens, err := s.generateTokens(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{ID: business.ID, Business: business, User: owner, Tokens: tokens}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.TokenResponse, error) {
	email := common.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.ValidationError("Email e senha são obrigatórios", nil)
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNoRows(err) {
			return nil, common.Unauthorized(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !profile.Active || profile.PasswordHash == "" {
		return nil, common.Unauthorized(msgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, common.Unauthorized(msgInvalidCredentials)
	}

	return s.generateTokens(ctx, profile)
}

// Refresh rotates a refresh token: the presented token is consumed.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, common.Unauthorized(msgInvalidRefresh)
	}
	key := caching.RefreshTokenKey(hashToken(refreshToken))

	// TakeJSON reads and deletes in one step, so a token is redeemed once.
	var session refreshSession
	found, err := s.cacheSvc.TakeJSON(ctx, key, &session)
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if !found {
		return nil, common.Unauthorized(msgInvalidRefresh)
	}

	profile, err := s.profiles.GetByID(ctx, session.BusinessID, session.UserID)
	if err != nil {
		if repositories.IsNoRows(err) {
			return nil, common.Unauthorized(msgInvalidRefresh)
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !profile.Active {
		return nil, common.Unauthorized(msgInvalidRefresh)
	}
	return s.generateTokens(ctx, profile)
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.cacheSvc.Delete(ctx, caching.RefreshTokenKey(hashToken(refreshToken)))
}

func (s *authService) Me(ctx context.Context, businessID, userID uuid.UUID) (*MeResponse, error) {
	profile, err := s.profiles.GetByID(ctx, businessID, userID)
	if err != nil {
		return nil, notFoundOr(err, msgProfileNotFound, "load profile")
	}
	business, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, notFoundOr(err, "Negócio não encontrado", "load business")
	}
	return &MeResponse{User: profile, Business: business}, nil
}

// ParseAccessToken verifies an access token issued by this API: HS256,
// signed with secret, with our issuer and audience.
func ParseAccessToken(token string, secret []byte) (*TokenClaims, *jwt.Token, error) {
	if len(secret) == 0 {
		return nil, nil, errors.New("local tokens are disabled")
	}
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !parsed.Valid {
		return nil, nil, errors.New("invalid token claims")
	}
	return claims, parsed, nil
}

// generateTokens generates access and refresh tokens for a user
func (s *authService) generateTokens(ctx context.Context, profile *models.Profile) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		UserID:     profile.ID.String(),
		BusinessID: profile.BusinessID.String(),
		Role:       profile.Role,
		TokenID:    tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   profile.ID.String(),
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := generateSecureToken(32)
	if err != nil {
		return nil, err
	}
	session := refreshSession{UserID: profile.ID, BusinessID: profile.BusinessID, Role: profile.Role}
	if err := s.cacheSvc.SetJSON(ctx, caching.RefreshTokenKey(hashToken(refreshToken)), session, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: refreshToken,
		UserID:       profile.ID.String(),
		BusinessID:   profile.BusinessID.String(),
		TokenID:      tokenID,
		IssuedAt:     now,
	}, nil
}

// generateSecureToken returns n random bytes, base64url encoded
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// hashToken is the sha256 hex digest used to store opaque secrets
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
