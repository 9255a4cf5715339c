package backup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
)

// tokenTTL bounds how long a download link stays valid.
const tokenTTL = 60 * time.Second

type Handler struct {
	db      *gorm.DB
	storage *storage.Local
	bus     *notify.Bus
	key     []byte // archive cipher key
	secret  []byte // download token signing secret
}

func NewHandler(db *gorm.DB, st *storage.Local, bus *notify.Bus, secret string) *Handler {
	return &Handler{
		db:      db,
		storage: st,
		bus:     bus,
		key:     DeriveKey(secret),
		secret:  []byte(secret),
	}
}

func (h *Handler) objectKey(rec models.BackupRecord) string {
	return fmt.Sprintf("backups/%s/%s", rec.ID, rec.FileName)
}

// Create takes a snapshot, seals it and records the archive.
//
// @Summary Create a backup
// @Tags backups
// @Produce json
// @Success 201 {object} models.BackupRecord
// @Router /api/backups [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	snap, err := TakeSnapshot(h.db.WithContext(c.Context()))
	if err != nil {
		return err
	}
	blob, err := BuildArchive(snap, h.key)
	if err != nil {
		return err
	}

	rec := models.BackupRecord{
		ID:        uuid.New(),
		FileName:  "helm-backup-" + snap.CreatedAt.Format("20060102-150405") + ".hlb",
		Size:      int64(len(blob)),
		CreatedAt: snap.CreatedAt,
	}
	if _, err := h.storage.Save(h.objectKey(rec), bytes.NewReader(blob)); err != nil {
		return fmt.Errorf("store backup: %w", err)
	}
	if err := h.db.WithContext(c.Context()).Create(&rec).Error; err != nil {
		return err
	}

	h.bus.Publish(notify.Success, "Backup "+rec.FileName+" created")
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// List returns all backups, newest first.
//
// @Summary List backups
// @Tags backups
// @Produce json
// @Success 200 {array} models.BackupRecord
// @Router /api/backups [get]
func (h *Handler) List(c *fiber.Ctx) error {
	var recs []models.BackupRecord
	if err := h.db.WithContext(c.Context()).
		Order("created_at DESC").Find(&recs).Error; err != nil {
		return err
	}
	if recs == nil {
		recs = []models.BackupRecord{}
	}
	return c.JSON(recs)
}

// Token issues a short-lived signed download URL for one backup.
//
// @Summary Get a signed download link
// @Tags backups
// @Produce json
// @Param id path string true "Backup UUID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router /api/backups/{id}/token [get]
func (h *Handler) Token(c *fiber.Ctx) error {
	rec, err := h.find(c)
	if err != nil {
		return err
	}

	claims := jwt.RegisteredClaims{
		Subject:   rec.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"url":        "/api/backups/" + rec.ID.String() + "/download?token=" + token,
		"expires_in": "60s",
	})
}

// Download streams an archive, authorized by the signed token only.
//
// @Summary Download a backup
// @Tags backups
// @Produce octet-stream
// @Param id path string true "Backup UUID"
// @Param token query string true "Signed token from /token"
// @Success 200
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/backups/{id}/download [get]
func (h *Handler) Download(c *fiber.Ctx) error {
	rec, err := h.find(c)
	if err != nil {
		return err
	}

	raw := c.Query("token")
	if raw == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing download token")
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if claims, ok := token.Claims.(*jwt.RegisteredClaims); !ok || claims.Subject != rec.ID.String() {
		return fiber.NewError(fiber.StatusUnauthorized, "Token does not match this backup")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+rec.FileName+`"`)
	return c.SendFile(h.storage.Path(h.objectKey(*rec)))
}

// Restore replaces the database with a backup's contents.
//
// @Summary Restore from a backup
// @Tags backups
// @Produce json
// @Param id path string true "Backup UUID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/backups/{id}/restore [post]
func (h *Handler) Restore(c *fiber.Ctx) error {
	rec, err := h.find(c)
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(h.storage.Path(h.objectKey(*rec)))
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	snap, err := OpenArchive(blob, h.key)
	if errors.Is(err, ErrBadArchive) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Backup archive is invalid or corrupted")
	}
	if err != nil {
		return err
	}
	if err := snap.Restore(h.db.WithContext(c.Context())); err != nil {
		return err
	}

	h.bus.Publish(notify.Success, "Restored from "+rec.FileName)
	return c.JSON(fiber.Map{"message": "Restore complete", "backup": rec.FileName})
}

// RestoreUpload restores from an archive file supplied by the client, for
// moving an office to a fresh install where no backup rows exist yet.
//
// @Summary Restore from an uploaded archive
// @Tags backups
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Backup archive (.hlb)"
// @Success 200 {object} map[string]string
// @Failure 422 {object} models.ErrorResponse
// @Router /api/backups/restore [post]
func (h *Handler) RestoreUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	blob, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	snap, err := OpenArchive(blob, h.key)
	if errors.Is(err, ErrBadArchive) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Backup archive is invalid or corrupted")
	}
	if err != nil {
		return err
	}
	if err := snap.Restore(h.db.WithContext(c.Context())); err != nil {
		return err
	}

	h.bus.Publish(notify.Success, "Restored from uploaded archive "+fh.Filename)
	return c.JSON(fiber.Map{"message": "Restore complete", "backup": fh.Filename})
}

// Delete removes a backup record and its archive file.
//
// @Summary Delete a backup
// @Tags backups
// @Param id path string true "Backup UUID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/backups/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	rec, err := h.find(c)
	if err != nil {
		return err
	}
	if err := h.db.WithContext(c.Context()).Delete(rec).Error; err != nil {
		return err
	}
	_ = h.storage.Remove(h.objectKey(*rec))
	h.bus.Publish(notify.Info, "Backup "+rec.FileName+" deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) find(c *fiber.Ctx) (*models.BackupRecord, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid backup id")
	}
	var rec models.BackupRecord
	err = h.db.WithContext(c.Context()).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Backup not found")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RegisterRoutes mounts the backup endpoints.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/backups")
	grp.Post("/", h.Create)
	grp.Get("/", h.List)
	grp.Get("/:id/token", h.Token)
	grp.Get("/:id/download", h.Download)
	grp.Post("/restore", h.RestoreUpload)
	grp.Post("/:id/restore", h.Restore)
	grp.Delete("/:id", h.Delete)
}
