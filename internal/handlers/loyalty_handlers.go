package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// LoyaltyHandlers handles the loyalty program, rewards and balances
type LoyaltyHandlers struct {
	loyaltyService services.LoyaltyService
}

func NewLoyaltyHandlers(loyaltyService services.LoyaltyService) *LoyaltyHandlers {
	return &LoyaltyHandlers{loyaltyService: loyaltyService}
}

type RedeemRequest struct {
	RewardID string `json:"reward_id"`
}

// GetProgram returns the active program
func (h *LoyaltyHandlers) GetProgram(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	program, err := h.loyaltyService.GetProgram(c.Request().Context(), bizID)
	if err != nil {
		return err
	}
	return common.SendOK(c, program)
}

func (h *LoyaltyHandlers) CreateProgram(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.ProgramRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	program, err := h.loyaltyService.CreateProgram(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, program)
}

func (h *LoyaltyHandlers) UpdateProgram(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.ProgramRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	program, err := h.loyaltyService.UpdateProgram(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, program)
}

// ListRewards lists rewards; ?active=true hides inactive ones
func (h *LoyaltyHandlers) ListRewards(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}

	rewards, err := h.loyaltyService.ListRewards(c.Request().Context(), bizID, active != nil && *active)
	if err != nil {
		return err
	}
	return common.SendOK(c, rewards)
}

func (h *LoyaltyHandlers) CreateReward(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.RewardRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	reward, err := h.loyaltyService.CreateReward(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, reward)
}

func (h *LoyaltyHandlers) UpdateReward(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req services.RewardRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	reward, err := h.loyaltyService.UpdateReward(c.Request().Context(), bizID, id, req)
	if err != nil {
		return err
	}
	return common.SendOK(c, reward)
}

// Balance returns a customer's points and paginated history
func (h *LoyaltyHandlers) Balance(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	balance, err := h.loyaltyService.Balance(c.Request().Context(), bizID, customerID, limit, offset)
	if err != nil {
		return err
	}
	return common.SendOK(c, balance)
}

// Redeem spends a customer's points on a reward
func (h *LoyaltyHandlers) Redeem(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	customerID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req RedeemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	rewardID, err := common.ValidateUUID(req.RewardID, "reward_id")
	if err != nil {
		return err
	}

	balance, err := h.loyaltyService.Redeem(c.Request().Context(), bizID, customerID, rewardID)
	if err != nil {
		return err
	}
	return common.SendOK(c, balance)
}
