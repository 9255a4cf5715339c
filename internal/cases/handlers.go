// Package cases exposes the case register: opening cases against clients,
// listing them and moving them through their status lifecycle with an audit
// trail of every change.
package cases

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
	"github.com/helmlegal/helm-backend/pkg/sanitize"
	"github.com/helmlegal/helm-backend/pkg/utils"
	"github.com/helmlegal/helm-backend/pkg/validation"
)

type Handler struct {
	db    *gorm.DB
	store *store.Store
	bus   *notify.Bus
}

func NewHandler(db *gorm.DB, st *store.Store, bus *notify.Bus) *Handler {
	return &Handler{db: db, store: st, bus: bus}
}

type createCaseRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=200"`
	ClientID    string          `json:"client_id" validate:"required"`
	Type        string          `json:"type" validate:"required,max=80"`
	Deadline    *time.Time      `json:"deadline"`
	CaseFee     decimal.Decimal `json:"case_fee"`
	Description string          `json:"description" validate:"max=5000"`
}

type caseListItem struct {
	models.Case
	Preview string `json:"preview"`
}

// Create opens a case for an existing client.
//
// @Summary Open a case
// @Tags cases
// @Accept json
// @Produce json
// @Param payload body createCaseRequest true " "
// @Success 201 {object} models.Case
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	errs, err := validation.Validate(req)
	if err != nil {
		return err
	}
	if req.CaseFee.IsNegative() {
		if errs == nil {
			errs = map[string][]string{}
		}
		errs["case_fee"] = append(errs["case_fee"], "Must be zero or greater")
	}
	if errs != nil {
		return validation.Respond(c, errs)
	}

	cs, err := h.store.AddCase(c.Context(), store.CaseInput{
		Title:       req.Title,
		ClientID:    req.ClientID,
		Type:        req.Type,
		Deadline:    req.Deadline,
		CaseFee:     req.CaseFee,
		Description: req.Description,
	})
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	if err != nil {
		return err
	}

	utils.LogCaseActivity(c.Context(), h.db, cs.ID, "opened", "", cs.Status, "Case opened")
	h.bus.Publish(notify.Success, "Case "+cs.ID+" opened for "+cs.ClientName)
	return c.Status(fiber.StatusCreated).JSON(cs)
}

// List returns cases in the order they were opened, each with a short
// description preview for the table view.
//
// @Summary List cases
// @Tags cases
// @Produce json
// @Param q query string false "Title or client-name filter"
// @Success 200 {array} caseListItem
// @Router /api/cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.store.ListCases(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	items := make([]caseListItem, 0, len(list))
	for _, cs := range list {
		items = append(items, caseListItem{
			Case:    cs,
			Preview: sanitize.Summary(cs.Description, 140),
		})
	}
	return c.JSON(items)
}

// Get returns one case together with its activity log, newest change first.
//
// @Summary Get a case
// @Tags cases
// @Produce json
// @Param id path string true "Case ID (CASE-001)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /api/cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	cs, err := h.store.GetCase(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Case not found")
	}
	if err != nil {
		return err
	}

	var activity []models.CaseActivity
	if err := h.db.WithContext(c.Context()).
		Where("case_id = ?", cs.ID).
		Order("created_at DESC").
		Find(&activity).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"case":     cs,
		"activity": activity,
	})
}

type updateStatusRequest struct {
	Status models.CaseStatus `json:"status" validate:"required,oneof=active closed under_review"`
	Note   string            `json:"note" validate:"max=500"`
}

// UpdateStatus changes a case's status and records the transition.
//
// @Summary Update case status
// @Tags cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body updateStatusRequest true " "
// @Success 200 {object} models.Case
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/cases/{id}/status [patch]
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	errs, err := validation.Validate(req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validation.Respond(c, errs)
	}

	id := c.Params("id")
	old, err := h.store.UpdateCaseStatus(c.Context(), id, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Case not found")
	}
	if err != nil {
		return err
	}

	utils.LogCaseActivity(c.Context(), h.db, id, "status_changed", old, req.Status, req.Note)
	h.bus.Publish(notify.Info, "Case "+id+" is now "+string(req.Status))

	cs, err := h.store.GetCase(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// RegisterRoutes mounts the case endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/cases")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Patch("/:id/status", h.UpdateStatus)
}
