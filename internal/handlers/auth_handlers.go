package handlers

import (
	"strings"

	"gestly/internal/common"
	"gestly/internal/middleware"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles registration and session endpoints
type AuthHandlers struct {
	authService services.AuthService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

// RefreshRequest carries the opaque refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshRequest) validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return common.FieldError("refresh_token", "Refresh token é obrigatório")
	}
	return nil
}

// Register creates the business and its owner profile
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, resp)
}

// Login exchanges email and password for a token pair
func (h *AuthHandlers) Login(c echo.Context) error {
	var req services.LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return common.ValidationError("Email e senha são obrigatórios", map[string]string{
			"email":    "Email é obrigatório",
			"password": "Senha é obrigatória",
		})
	}

	tokens, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return common.SendOK(c, tokens)
}

// Refresh rotates a refresh token
func (h *AuthHandlers) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	tokens, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return common.SendOK(c, tokens)
}

// Logout revokes a refresh token
func (h *AuthHandlers) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return common.SendOK(c, map[string]bool{"logged_out": true})
}

// Me returns the session user and its business
func (h *AuthHandlers) Me(c echo.Context) error {
	p, err := middleware.PrincipalFrom(c)
	if err != nil {
		return err
	}

	me, err := h.authService.Me(c.Request().Context(), p.BusinessID, p.UserID)
	if err != nil {
		return err
	}
	return common.SendOK(c, me)
}
