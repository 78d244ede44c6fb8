package handler

import (
	"github.com/labstack/echo/v4"

	"counselhub/internal/adapter/api/middleware"
	"counselhub/internal/domain/entity"
	"counselhub/internal/domain/service"
	"counselhub/internal/usecase"
	"counselhub/pkg/errors"
	"counselhub/pkg/response"
	"counselhub/pkg/utils"
)

type ReviewHandler struct {
	store *usecase.ReviewStore
}

func NewReviewHandler(store *usecase.ReviewStore) *ReviewHandler {
	return &ReviewHandler{
		store: store,
	}
}

func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	var req entity.ReviewInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}

	id, err := h.store.Submit(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]interface{}{
		"id":     id,
		"status": entity.ReviewPending,
	})
}

type lawyerReviewsResponse struct {
	Rating  service.LawyerRating `json:"rating"`
	Reviews []entity.Review      `json:"reviews"`
}

// GetLawyerReviews is public: approved reviews only, without author emails.
func (h *ReviewHandler) GetLawyerReviews(c echo.Context) error {
	lawyerID := c.Param("lawyerId")
	if lawyerID == "" {
		return response.Error(c, errors.Validation("Lawyer ID is required", nil))
	}

	reviews := h.store.ApprovedForLawyer(lawyerID)
	for i := range reviews {
		reviews[i].AuthorEmail = ""
		reviews[i].ModeratorID = ""
	}
	if reviews == nil {
		reviews = []entity.Review{}
	}

	return response.Success(c, lawyerReviewsResponse{
		Rating:  h.store.LawyerRating(lawyerID),
		Reviews: reviews,
	})
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	status := entity.ReviewStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, errors.Validation("Invalid status filter", nil))
	}

	var reviews []entity.Review
	for r := range h.store.Query(usecase.ReviewFilter{Status: status, Text: c.QueryParam("q")}) {
		reviews = append(reviews, r)
	}
	if reviews == nil {
		reviews = []entity.Review{}
	}

	p := utils.GetPaginationParams(c)
	start, end := p.Window(len(reviews))
	return response.Paginated(c, reviews[start:end], int64(len(reviews)), p.Page, p.PageSize)
}

func (h *ReviewHandler) GetStats(c echo.Context) error {
	return response.Success(c, h.store.Stats())
}

func (h *ReviewHandler) ApproveReview(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Approve(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "status": entity.ReviewApproved})
}

func (h *ReviewHandler) RejectReview(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Reject(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "status": entity.ReviewRejected})
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "deleted": true})
}
