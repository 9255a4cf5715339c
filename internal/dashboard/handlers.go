// Package dashboard aggregates the numbers on the landing screen: headline
// totals, the monthly cash-flow chart, reminders and the notification feed.
package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

type summaryResponse struct {
	Clients        int64           `json:"clients"`
	ActiveCases    int64           `json:"active_cases"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	OverdueDues    decimal.Decimal `json:"overdue_dues"`
}

// Summary returns the headline dashboard numbers. Collected counts paid
// invoices and receipts; expenses count paid expenses and commissions;
// outstanding is the sum of every client's agreed minus collected, so
// over-collected clients pull the total down. Overdue dues sum the inflow
// entries currently marked overdue.
//
// @Summary Dashboard summary
// @Tags dashboard
// @Produce json
// @Success 200 {object} summaryResponse
// @Router /api/dashboard/summary [get]
func (h *Handler) Summary(c *fiber.Ctx) error {
	ctx := c.Context()

	var out summaryResponse
	if err := h.db.WithContext(ctx).Model(&models.Client{}).Count(&out.Clients).Error; err != nil {
		return err
	}
	if err := h.db.WithContext(ctx).Model(&models.Case{}).
		Where("status = ?", models.CaseActive).Count(&out.ActiveCases).Error; err != nil {
		return err
	}

	entries, err := h.store.ListEntries(ctx, "", "")
	if err != nil {
		return err
	}
	out.TotalCollected = decimal.Zero
	out.TotalExpenses = decimal.Zero
	out.OverdueDues = decimal.Zero
	for _, e := range entries {
		if e.Status == models.EntryOverdue &&
			(e.Kind == models.EntryInvoice || e.Kind == models.EntryReceipt) {
			out.OverdueDues = out.OverdueDues.Add(e.Amount)
		}
		if e.Status != models.EntryPaid {
			continue
		}
		switch e.Kind {
		case models.EntryInvoice, models.EntryReceipt:
			out.TotalCollected = out.TotalCollected.Add(e.Amount)
		case models.EntryExpense, models.EntryCommission:
			out.TotalExpenses = out.TotalExpenses.Add(e.Amount)
		}
	}

	clients, err := h.store.ListClients(ctx, "")
	if err != nil {
		return err
	}
	out.Outstanding = decimal.Zero
	for _, cl := range clients {
		bal := ledger.ClientBalance(cl.ID, cl.AgreedAmount, entries)
		out.Outstanding = out.Outstanding.Add(bal.Outstanding)
	}

	return c.JSON(out)
}

type monthFlow struct {
	Month   string          `json:"month"` // "2026-08"
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Cashflow returns paid income vs expense per month for the last six months,
// oldest first. Aggregation happens in Go so it behaves the same on SQLite
// and Postgres.
//
// @Summary Monthly cash flow
// @Tags dashboard
// @Produce json
// @Success 200 {array} monthFlow
// @Router /api/dashboard/cashflow [get]
func (h *Handler) Cashflow(c *fiber.Ctx) error {
	const months = 6

	entries, err := h.store.ListEntries(c.Context(), "", "")
	if err != nil {
		return err
	}

	now := time.Now()
	flows := make([]monthFlow, 0, months)
	index := make(map[string]int, months)
	for i := months - 1; i >= 0; i-- {
		m := now.AddDate(0, -i, 0).Format("2006-01")
		index[m] = len(flows)
		flows = append(flows, monthFlow{Month: m, Income: decimal.Zero, Expense: decimal.Zero})
	}

	for _, e := range entries {
		if e.Status != models.EntryPaid {
			continue
		}
		slot, ok := index[e.Date.Format("2006-01")]
		if !ok {
			continue
		}
		switch e.Kind {
		case models.EntryInvoice, models.EntryReceipt:
			flows[slot].Income = flows[slot].Income.Add(e.Amount)
		case models.EntryExpense, models.EntryCommission:
			flows[slot].Expense = flows[slot].Expense.Add(e.Amount)
		}
	}

	return c.JSON(flows)
}

type createReminderRequest struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Date     time.Time `json:"date" validate:"required"`
	Type     string    `json:"type" validate:"required,oneof=case collection appointment task"`
	Priority string    `json:"priority" validate:"required,oneof=high medium low"`
}

// ListReminders returns reminders in due-date order.
//
// @Summary List reminders
// @Tags dashboard
// @Produce json
// @Success 200 {array} models.Reminder
// @Router /api/reminders [get]
func (h *Handler) ListReminders(c *fiber.Ctx) error {
	var reminders []models.Reminder
	if err := h.db.WithContext(c.Context()).
		Order("date ASC").Find(&reminders).Error; err != nil {
		return err
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	return c.JSON(reminders)
}

// CreateReminder adds a reminder.
//
// @Summary Create a reminder
// @Tags dashboard
// @Accept json
// @Produce json
// @Param payload body createReminderRequest true " "
// @Success 201 {object} models.Reminder
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /api/reminders [post]
func (h *Handler) CreateReminder(c *fiber.Ctx) error {
	var req createReminderRequest
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

	rem := models.Reminder{
		ID:        uuid.New(),
		Title:     req.Title,
		Date:      req.Date,
		Type:      models.ReminderType(req.Type),
		Priority:  req.Priority,
		CreatedAt: time.Now(),
	}
	if err := h.db.WithContext(c.Context()).Create(&rem).Error; err != nil {
		return err
	}
	h.bus.Publish(notify.Info, "Reminder added: "+rem.Title)
	return c.Status(fiber.StatusCreated).JSON(rem)
}

// DeleteReminder removes a reminder.
//
// @Summary Delete a reminder
// @Tags dashboard
// @Param id path string true "Reminder UUID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/reminders/{id} [delete]
func (h *Handler) DeleteReminder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid reminder id")
	}
	res := h.db.WithContext(c.Context()).Delete(&models.Reminder{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Reminder not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Notifications returns the most recent notifications, newest first.
//
// @Summary Recent notifications
// @Tags dashboard
// @Produce json
// @Success 200 {array} notify.Notification
// @Router /api/notifications [get]
func (h *Handler) Notifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	return c.JSON(h.bus.Recent(limit))
}

// RegisterRoutes mounts the dashboard, reminder and notification endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/api/dashboard/summary", h.Summary)
	app.Get("/api/dashboard/cashflow", h.Cashflow)
	app.Get("/api/reminders", h.ListReminders)
	app.Post("/api/reminders", h.CreateReminder)
	app.Delete("/api/reminders/:id", h.DeleteReminder)
	app.Get("/api/notifications", h.Notifications)
}
