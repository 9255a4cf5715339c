// Package finance exposes the office ledger: invoices, receipts, expenses and
// mediator commissions, each numbered from its own sequence, plus the
// printable voucher for any single entry.
package finance

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/office"
	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/ledger"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
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

type createEntryRequest struct {
	Kind      models.EntryKind   `json:"kind" validate:"required,oneof=invoice receipt expense commission"`
	ClientID  string             `json:"client_id"`
	PartyName string             `json:"party_name" validate:"max=200"`
	Amount    decimal.Decimal    `json:"amount"`
	Date      *time.Time         `json:"date"`
	Status    models.EntryStatus `json:"status" validate:"omitempty,oneof=draft sent paid overdue"`
}

// Create records a new ledger entry and issues its document number.
//
// @Summary Record a ledger entry
// @Tags finance
// @Accept json
// @Produce json
// @Param payload body createEntryRequest true " "
// @Success 201 {object} models.LedgerEntry
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/entries [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createEntryRequest
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

	entry, err := h.store.AddEntry(c.Context(), req.Kind, store.EntryInput{
		ClientID:  req.ClientID,
		PartyName: req.PartyName,
		Amount:    req.Amount,
		Date:      req.Date,
		Status:    req.Status,
	})
	switch {
	case errors.Is(err, store.ErrInvalidAmount):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Amount must be greater than zero")
	case errors.Is(err, store.ErrMissingField):
		return validation.Respond(c, map[string][]string{
			"party_name": {"This field is required"},
		})
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	case err != nil:
		return err
	}

	h.bus.Publish(notify.Success, "Entry "+entry.ID+" recorded")
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// List returns ledger entries, newest first.
//
// @Summary List ledger entries
// @Tags finance
// @Produce json
// @Param q query string false "Party-name or document-number filter"
// @Param kind query string false "invoice | receipt | expense | commission"
// @Success 200 {array} models.LedgerEntry
// @Failure 400 {object} models.ErrorResponse
// @Router /api/entries [get]
func (h *Handler) List(c *fiber.Ctx) error {
	kind := models.EntryKind(c.Query("kind"))
	switch kind {
	case "", models.EntryInvoice, models.EntryReceipt, models.EntryExpense, models.EntryCommission:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Unknown entry kind")
	}
	entries, err := h.store.ListEntries(c.Context(), c.Query("q"), kind)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// Delete removes an entry. Its document number is never reused.
//
// @Summary Delete a ledger entry
// @Tags finance
// @Produce json
// @Param id path string true "Entry ID (INV-001)"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/entries/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	err := h.store.RemoveEntry(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Entry not found")
	}
	if err != nil {
		return err
	}
	h.bus.Publish(notify.Info, "Entry "+id+" deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

// Voucher renders the printable receipt/payment voucher for one entry.
//
// @Summary Render an entry voucher
// @Tags finance
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} ledger.VoucherDocument
// @Failure 404 {object} models.ErrorResponse
// @Router /api/entries/{id}/voucher [get]
func (h *Handler) Voucher(c *fiber.Ctx) error {
	entry, err := h.store.GetEntry(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Entry not found")
	}
	if err != nil {
		return err
	}
	profile, err := office.Current(h.db)
	if err != nil {
		return err
	}
	return c.JSON(ledger.RenderEntryVoucher(profile, *entry))
}

// RegisterRoutes mounts the ledger endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/entries")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Delete("/:id", h.Delete)
	grp.Get("/:id/voucher", h.Voucher)
}
