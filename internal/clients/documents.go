package clients

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
)

// maxDocumentSize caps document uploads at 10 MB.
const maxDocumentSize = 10 << 20

// UploadDocument attaches a file to a client's document list.
//
// @Summary Upload a client document
// @Tags clients
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Client ID"
// @Param file formData file true "Document"
// @Success 201 {object} models.Client
// @Failure 404 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Router /api/clients/{id}/documents [post]
func (h *Handler) UploadDocument(c *fiber.Ctx) error {
	clientID := c.Params("id")

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "File is required")
	}
	if fh.Size > maxDocumentSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "File must be 10MB or smaller")
	}

	// Resolve the client before touching disk so a bad id costs nothing.
	if _, err := h.store.GetClient(c.Context(), clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Client not found")
		}
		return err
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	key := h.storage.MakeObjectKey("documents", clientID, fh.Filename)
	size, err := h.storage.Save(key, src)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	client, err := h.store.AttachDocument(c.Context(), clientID, store.DocumentMeta{
		Name: fh.Filename,
		Size: size,
		Key:  key,
	})
	if err != nil {
		// Roll the object back if the metadata write failed.
		_ = h.storage.Remove(key)
		return err
	}

	h.bus.Publish(notify.Success, "Document attached to "+clientID)
	return c.Status(fiber.StatusCreated).JSON(client)
}

// DownloadDocument streams a stored document.
//
// @Summary Download a client document
// @Tags clients
// @Produce octet-stream
// @Param id path string true "Client ID"
// @Param docID path string true "Document UUID"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id}/documents/{docID} [get]
func (h *Handler) DownloadDocument(c *fiber.Ctx) error {
	doc, err := h.findDocument(c)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Name+`"`)
	return c.SendFile(h.storage.Path(doc.Key))
}

// DeleteDocument removes a document row and its stored object.
//
// @Summary Delete a client document
// @Tags clients
// @Produce json
// @Param id path string true "Client ID"
// @Param docID path string true "Document UUID"
// @Success 200 {object} models.Client
// @Failure 404 {object} models.ErrorResponse
// @Router /api/clients/{id}/documents/{docID} [delete]
func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	clientID := c.Params("id")
	docID, err := uuid.Parse(c.Params("docID"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}

	key, err := h.store.RemoveDocument(c.Context(), clientID, docID)
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}
	if err != nil {
		return err
	}
	_ = h.storage.Remove(key)

	client, err := h.store.GetClient(c.Context(), clientID)
	if err != nil {
		return err
	}
	h.bus.Publish(notify.Info, "Document removed from "+clientID)
	return c.JSON(client)
}

func (h *Handler) findDocument(c *fiber.Ctx) (*models.Document, error) {
	docID, err := uuid.Parse(c.Params("docID"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}
	client, err := h.store.GetClient(c.Context(), c.Params("id"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Client not found")
	}
	if err != nil {
		return nil, err
	}
	for i := range client.Documents {
		if client.Documents[i].ID == docID {
			return &client.Documents[i], nil
		}
	}
	return nil, fiber.NewError(fiber.StatusNotFound, "Document not found")
}
