package backup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/pkg/httpx"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.BackupRecord{}))
	t.Setenv("DATA_DIR", t.TempDir())

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	RegisterRoutes(app, NewHandler(db, storage.NewLocal(), notify.NewBus(10), "test-secret"))
	return app, db
}

func TestBackupLifecycle(t *testing.T) {
	app, db := setupApp(t)

	require.NoError(t, db.Create(&models.Client{
		ID: "CL-001", Name: "Dana K.", Email: "dana@example.com",
		IDNumber: "784199012345678", Phone: "+971501234567",
		AgreedAmount: decimal.NewFromInt(25000),
	}).Error)

	// Create
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/backups", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec models.BackupRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.NotZero(t, rec.Size)

	// List
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/backups", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []models.BackupRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	assert.Len(t, recs, 1)

	// Token
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/backups/"+rec.ID.String()+"/token", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var link struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
	require.NotEmpty(t, link.URL)

	// Download with the signed link
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, link.URL, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Download without a token is refused
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/backups/"+rec.ID.String()+"/download", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Mutate, then restore: the pre-backup state comes back.
	require.NoError(t, db.Where("1 = 1").Delete(&models.Client{}).Error)
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/backups/"+rec.ID.String()+"/restore", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var clients []models.Client
	require.NoError(t, db.Find(&clients).Error)
	if assert.Len(t, clients, 1) {
		assert.Equal(t, "CL-001", clients[0].ID)
	}
}

func TestBackupNotFound(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/backups/6f1f2a8e-0000-0000-0000-000000000000/token", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/backups/not-a-uuid/token", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
