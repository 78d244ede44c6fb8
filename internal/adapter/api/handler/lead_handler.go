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

type LeadHandler struct {
	leads   *usecase.LeadAggregator
	matches *usecase.MatchRequestUseCase
	intake  *usecase.IntakeUseCase
}

func NewLeadHandler(leads *usecase.LeadAggregator, matches *usecase.MatchRequestUseCase, intake *usecase.IntakeUseCase) *LeadHandler {
	return &LeadHandler{
		leads:   leads,
		matches: matches,
		intake:  intake,
	}
}

func (h *LeadHandler) SubmitIntake(c echo.Context) error {
	var req entity.DirectContactInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}

	id, err := h.intake.SubmitDirectContact(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]interface{}{"id": id, "status": entity.LeadNew})
}

func (h *LeadHandler) SubmitMatchRequest(c echo.Context) error {
	var req service.MatchRequestInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}

	id, err := h.matches.Submit(c.Request().Context(), middleware.IdentityFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, map[string]interface{}{"id": id, "status": entity.LeadNew})
}

func (h *LeadHandler) ListLeads(c echo.Context) error {
	origin := entity.LeadOrigin(c.QueryParam("origin"))
	if origin != "" && !origin.Valid() {
		return response.Error(c, errors.Validation("Invalid origin filter", nil))
	}
	status := entity.LeadStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return response.Error(c, errors.Validation("Invalid status filter", nil))
	}

	leads := h.leads.Filter(usecase.LeadFilter{Origin: origin, Status: status, Text: c.QueryParam("q")})
	if leads == nil {
		leads = []entity.Lead{}
	}

	p := utils.GetPaginationParams(c)
	start, end := p.Window(len(leads))
	return response.Paginated(c, leads[start:end], int64(len(leads)), p.Page, p.PageSize)
}

func (h *LeadHandler) GetLeadStats(c echo.Context) error {
	return response.Success(c, h.leads.Stats())
}

type updateLeadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *LeadHandler) UpdateLeadStatus(c echo.Context) error {
	var req updateLeadStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	id := c.Param("id")
	origin := entity.LeadOrigin(c.Param("origin"))
	status := entity.LeadStatus(req.Status)
	if err := h.leads.UpdateStatus(c.Request().Context(), middleware.IdentityFrom(c), id, origin, status); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "origin": origin, "status": status})
}

func (h *LeadHandler) RemoveLead(c echo.Context) error {
	id := c.Param("id")
	origin := entity.LeadOrigin(c.Param("origin"))
	if err := h.leads.Remove(c.Request().Context(), middleware.IdentityFrom(c), id, origin); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "origin": origin, "deleted": true})
}

func (h *LeadHandler) GetMatchRequest(c echo.Context) error {
	rec, err := h.matches.Load(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, rec)
}

func (h *LeadHandler) GetBulletin(c echo.Context) error {
	board, err := h.leads.Bulletin(middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, board, len(board))
}

func (h *LeadHandler) ExpressInterest(c echo.Context) error {
	id := c.Param("leadId")
	if err := h.leads.ExpressInterest(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "interested": true})
}
