// Package clients exposes the client registry: creation, lookup, the
// per-client balance and the printable account statement.
package clients

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/office"
	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/ledger"
	"github.com/helmlegal/helm-backend/pkg/notify"
	"github.com/helmlegal/helm-backend/pkg/validation"
)

type Handler struct {
	db      *gorm.DB
	store   *store.Store
	storage *storage.Local
	bus     *notify.Bus
}

func NewHandler(db *gorm.DB, st *store.Store, ls *storage.Local, bus *notify.Bus) *Handler {
	return &Handler{db: db, store: st, storage: ls, bus: bus}
}

type createClientRequest struct {
	Name         string          `json:"name" validate:"required,min=2,max=120"`
	Email        string          `json:"email" validate:"required,email"`
	IDNumber     string          `json:"id_number" validate:"required,idnum"`
	Phone        string          `json:"phone" validate:"required,phone"`
	Mediator     string          `json:"mediator" validate:"max=120"`
	AgreedAmount decimal.Decimal `json:"agreed_amount"`
}

// Create registers a new client and issues its CL number.
//
// @Summary Create a client
// @Tags clients
// @Accept json
// @Produce json
// @Param payload body createClientRequest true " "
// @Success 201 {object} models.Client
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /api/clients [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	errs, err := validation.Validate(req)
	if err != nil {
		return err
	}
	if req.AgreedAmount.IsNegative() {
		if errs == nil {
			errs = map[string][]string{}
		}
		errs["agreed_amount"] = append(errs["agreed_amount"], "Must be zero or greater")
	}
	if errs != nil {
		return validation.Respond(c, errs)
	}

	client, err := h.store.AddClient(c.Context(), store.ClientInput{
		Name:         req.Name,
		Email:        req.Email,
		IDNumber:     req.IDNumber,
		Phone:        req.Phone,
		Mediator:     req.Mediator,
		AgreedAmount: req.AgreedAmount,
	})
	if err != nil {
		return err
	}

	h.bus.Publish(notify.Success, "Client "+client.ID+" registered")
	return c.Status(fiber.StatusCreated).JSON(client)
}

// List returns all clients in registration order.
//
// @Summary List clients
// @Tags clients
// @Produce json
// @Param q query string false "Name or id-number filter"
// @Success 200 {array} models.Client
// @Router /api/clients [get]
func (h *Handler) List(c *fiber.Ctx) error {
	clients, err := h.store.ListClients(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(clients)
}

// Get returns one client with its documents.
//
// @Summary Get a client
// @Tags clients
// @Produce json
// @Param id path string true "Client ID (CL-001)"
// @Success 200 {object} models.Client
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	client, err := h.store.GetClient(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(client)
}

// Balance returns the agreed / collected / outstanding triple for a client.
//
// @Summary Get a client's balance
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} ledger.Balance
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id}/balance [get]
func (h *Handler) Balance(c *fiber.Ctx) error {
	bal, err := h.store.ClientBalance(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(bal)
}

// Statement renders the printable account statement for a client.
//
// @Summary Render a client statement
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} ledger.StatementDocument
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id}/statement [get]
func (h *Handler) Statement(c *fiber.Ctx) error {
	client, err := h.store.GetClient(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	if err != nil {
		return err
	}
	entries, err := h.store.EntriesForClient(c.Context(), client.ID)
	if err != nil {
		return err
	}
	profile, err := office.Current(h.db)
	if err != nil {
		return err
	}
	return c.JSON(ledger.RenderClientStatement(profile, *client, entries))
}

// RegisterRoutes mounts the client endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/clients")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id", h.Get)
	grp.Get("/:id/balance", h.Balance)
	grp.Get("/:id/statement", h.Statement)
	grp.Post("/:id/documents", h.UploadDocument)
	grp.Get("/:id/documents/:docID", h.DownloadDocument)
	grp.Delete("/:id/documents/:docID", h.DeleteDocument)
}
