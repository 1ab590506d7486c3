package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// ProfileHandlers manages the staff profiles of a business
type ProfileHandlers struct {
	profileService services.ProfileService
}

// NewProfileHandlers creates a new profile handlers instance
func NewProfileHandlers(profileService services.ProfileService) *ProfileHandlers {
	return &ProfileHandlers{profileService: profileService}
}

// ListProfiles lists profiles, optionally filtered by role
func (h *ProfileHandlers) ListProfiles(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	profiles, err := h.profileService.List(c.Request().Context(), bizID, c.QueryParam("role"), limit, offset)
	if err != nil {
		return err
	}
	return common.SendList(c, profiles, limit, offset)
}

// CreateProfile adds a professional or admin to the business
func (h *ProfileHandlers) CreateProfile(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.CreateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	profile, err := h.profileService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, profile)
}

func (h *ProfileHandlers) GetProfile(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.profileService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, profile)
}

// UpdateProfile changes name, role, commission rate or active flag
func (h *ProfileHandlers) UpdateProfile(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	profile, err := h.profileService.Update(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, profile)
}
