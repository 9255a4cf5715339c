// Package office manages the single office profile row: the firm identity
// printed on statements and vouchers, plus the avatar shown in the top bar.
package office

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
	"github.com/helmlegal/helm-backend/pkg/validation"
)

// maxAvatarSize caps avatar uploads at 2 MB.
const maxAvatarSize = 2 << 20

// Current returns the office profile, creating the default row on first use.
func Current(db *gorm.DB) (models.OfficeProfile, error) {
	var profile models.OfficeProfile
	err := db.First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.OfficeProfile{
			ID:         1,
			OfficeName: "Helm Legal Consulting",
			Branch:     "Main Branch",
		}
		if err := db.Create(&profile).Error; err != nil {
			return models.OfficeProfile{}, err
		}
		return profile, nil
	}
	if err != nil {
		return models.OfficeProfile{}, err
	}
	return profile, nil
}

type Handler struct {
	db      *gorm.DB
	storage *storage.Local
	bus     *notify.Bus
}

func NewHandler(db *gorm.DB, st *storage.Local, bus *notify.Bus) *Handler {
	return &Handler{db: db, storage: st, bus: bus}
}

type updateProfileRequest struct {
	OfficeName     string `json:"office_name" validate:"required,max=120"`
	Branch         string `json:"branch" validate:"max=120"`
	ConsultantName string `json:"consultant_name" validate:"max=120"`
	ConsultantMail string `json:"consultant_email" validate:"omitempty,email"`
	AccountsName   string `json:"accounts_name" validate:"max=120"`
	AccountsMail   string `json:"accounts_email" validate:"omitempty,email"`
	Address        string `json:"address" validate:"max=300"`
}

// Get returns the office profile.
//
// @Summary Get office profile
// @Tags office
// @Produce json
// @Success 200 {object} models.OfficeProfile
// @Router /api/office [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	profile, err := Current(h.db)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// Update replaces the editable profile fields.
//
// @Summary Update office profile
// @Tags office
// @Accept json
// @Produce json
// @Param payload body updateProfileRequest true " "
// @Success 200 {object} models.OfficeProfile
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /api/office [put]
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateProfileRequest
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

	profile, err := Current(h.db)
	if err != nil {
		return err
	}
	profile.OfficeName = strings.TrimSpace(req.OfficeName)
	profile.Branch = strings.TrimSpace(req.Branch)
	profile.ConsultantName = strings.TrimSpace(req.ConsultantName)
	profile.ConsultantMail = strings.TrimSpace(req.ConsultantMail)
	profile.AccountsName = strings.TrimSpace(req.AccountsName)
	profile.AccountsMail = strings.TrimSpace(req.AccountsMail)
	profile.Address = strings.TrimSpace(req.Address)

	if err := h.db.Save(&profile).Error; err != nil {
		return err
	}
	h.bus.Publish(notify.Success, "Office profile updated")
	return c.JSON(profile)
}

// UploadAvatar stores a new office avatar and replaces the previous one.
//
// @Summary Upload office avatar
// @Tags office
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Avatar image"
// @Success 200 {object} models.OfficeProfile
// @Router /api/office/avatar [post]
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	if fh.Size > maxAvatarSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Avatar must be 2MB or smaller")
	}
	ext := strings.ToLower(fh.Filename)
	if !strings.HasSuffix(ext, ".png") && !strings.HasSuffix(ext, ".jpg") && !strings.HasSuffix(ext, ".jpeg") {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Avatar must be a PNG or JPEG image")
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	key := h.storage.MakeObjectKey("office", "avatar", fh.Filename)
	if _, err := h.storage.Save(key, src); err != nil {
		return fmt.Errorf("save avatar: %w", err)
	}

	profile, err := Current(h.db)
	if err != nil {
		return err
	}
	oldKey := profile.AvatarKey
	profile.AvatarKey = key
	if err := h.db.Save(&profile).Error; err != nil {
		return err
	}
	if oldKey != "" {
		_ = h.storage.Remove(oldKey)
	}
	h.bus.Publish(notify.Success, "Avatar updated")
	return c.JSON(profile)
}

// Avatar streams the current avatar file.
//
// @Summary Download office avatar
// @Tags office
// @Produce octet-stream
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /api/office/avatar [get]
func (h *Handler) Avatar(c *fiber.Ctx) error {
	profile, err := Current(h.db)
	if err != nil {
		return err
	}
	if profile.AvatarKey == "" {
		return fiber.NewError(fiber.StatusNotFound, "No avatar uploaded")
	}
	return c.SendFile(h.storage.Path(profile.AvatarKey))
}

// RegisterRoutes mounts the office endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/office")
	grp.Get("/", h.Get)
	grp.Put("/", h.Update)
	grp.Post("/avatar", h.UploadAvatar)
	grp.Get("/avatar", h.Avatar)
}
