package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/request"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/response"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputeUsecase "github.com/LavaJover/shvark-settlement-service/internal/usecase/dispute"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type DisputeHandler struct {
	uc       disputeUsecase.DisputeUsecase
	validate *validator.Validate
}

func NewDisputeHandler(uc disputeUsecase.DisputeUsecase) *DisputeHandler {
	return &DisputeHandler{
		uc:       uc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *DisputeHandler) Register(g *echo.Group) {
	g.POST("/disputes", h.CreateDispute)
	g.GET("/disputes", h.ListDisputes)
	g.GET("/disputes/:id", h.GetDispute)
	g.PUT("/disputes/:id/position", h.SubmitPosition)
	g.POST("/disputes/:id/accept", h.AcceptProposal)
	g.POST("/disputes/:id/modifications", h.RequestModification)
	g.POST("/disputes/:id/generation", h.RetryGeneration)
}

func (h *DisputeHandler) bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := h.validate.Struct(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func (h *DisputeHandler) CreateDispute(c echo.Context) error {
	var req request.CreateDisputeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	input := &disputedto.CreateDisputeInput{
		CreatorID:         middleware.PartyID(c),
		Description:       req.Description,
		Documents:         toDomainDocuments(req.Documents),
		CounterpartyEmail: req.CounterpartyEmail,
	}
	if req.Value != nil {
		input.Value = &domain.Money{Amount: req.Value.Amount, Currency: req.Value.Currency}
	}
	if req.Position != nil {
		input.Position = &domain.Position{
			Description: req.Position.Description,
			Documents:   toDomainDocuments(req.Position.Documents),
		}
	}

	out, err := h.uc.CreateDispute(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDisputeResponse(out))
}

func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	var query request.ListDisputesQuery
	if err := h.bind(c, &query); err != nil {
		return err
	}

	input := &disputedto.GetPartyDisputesInput{
		PartyID: middleware.PartyID(c),
		Page:    query.Page,
		Limit:   query.Limit,
	}
	if query.Status != "" {
		status := domain.NegotiationStatus(query.Status)
		input.Status = &status
	}

	out, err := h.uc.GetPartyDisputes(c.Request().Context(), input)
	if err != nil {
		return err
	}

	resp := response.ListDisputesResponse{
		Disputes: make([]response.DisputeResponse, 0, len(out.Disputes)),
		Pagination: response.Pagination{
			CurrentPage:  out.Pagination.CurrentPage,
			TotalPages:   out.Pagination.TotalPages,
			TotalItems:   out.Pagination.TotalItems,
			ItemsPerPage: out.Pagination.ItemsPerPage,
		},
	}
	for _, d := range out.Disputes {
		resp.Disputes = append(resp.Disputes, toDisputeResponse(d))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *DisputeHandler) GetDispute(c echo.Context) error {
	out, err := h.uc.GetDispute(c.Request().Context(), c.Param("id"), middleware.PartyID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDisputeResponse(out))
}

func (h *DisputeHandler) SubmitPosition(c echo.Context) error {
	var req request.PositionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.SubmitPosition(c.Request().Context(), &disputedto.SubmitPositionInput{
		DisputeID:   c.Param("id"),
		PartyID:     middleware.PartyID(c),
		Description: req.Description,
		Documents:   toDomainDocuments(req.Documents),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDisputeResponse(out))
}

func (h *DisputeHandler) AcceptProposal(c echo.Context) error {
	out, err := h.uc.AcceptProposal(c.Request().Context(), c.Param("id"), middleware.PartyID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDisputeResponse(out))
}

func (h *DisputeHandler) RequestModification(c echo.Context) error {
	var req request.ModificationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.RequestModification(c.Request().Context(), &disputedto.RequestModificationInput{
		DisputeID: c.Param("id"),
		PartyID:   middleware.PartyID(c),
		Feedback:  req.Feedback,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDisputeResponse(out))
}

func (h *DisputeHandler) RetryGeneration(c echo.Context) error {
	if err := h.uc.RetryGeneration(c.Request().Context(), c.Param("id"), middleware.PartyID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}
