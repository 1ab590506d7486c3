package handlers

import (
	"gestly/internal/common"
	"gestly/internal/services"

	"github.com/labstack/echo/v4"
)

// ReviewHandlers handles customer reviews of completed appointments
type ReviewHandlers struct {
	reviewService services.ReviewService
}

func NewReviewHandlers(reviewService services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviewService: reviewService}
}

func (h *ReviewHandlers) ListReviews(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.List(c.Request().Context(), bizID, limit, offset)
	if err != nil {
		return err
	}
	return common.SendList(c, reviews, limit, offset)
}

func (h *ReviewHandlers) CreateReview(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	var req services.CreateReviewRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	review, err := h.reviewService.Create(c.Request().Context(), bizID, req)
	if err != nil {
		return err
	}
	return common.SendCreated(c, review)
}

func (h *ReviewHandlers) GetReview(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	review, err := h.reviewService.Get(c.Request().Context(), bizID, id)
	if err != nil {
		return err
	}
	return common.SendOK(c, review)
}

func (h *ReviewHandlers) DeleteReview(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.reviewService.Delete(c.Request().Context(), bizID, id); err != nil {
		return err
	}
	return common.SendOK(c, map[string]string{"id": id.String()})
}

// Summary returns the average rating and the distribution per star
func (h *ReviewHandlers) Summary(c echo.Context) error {
	bizID, err := businessID(c)
	if err != nil {
		return err
	}

	summary, err := h.reviewService.Summary(c.Request().Context(), bizID)
	if err != nil {
		return err
	}
	return common.SendOK(c, summary)
}
