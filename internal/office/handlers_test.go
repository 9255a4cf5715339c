package office

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/helmlegal/helm-backend/internal/storage"
	"github.com/helmlegal/helm-backend/pkg/httpx"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OfficeProfile{}))

	t.Setenv("DATA_DIR", t.TempDir())
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	RegisterRoutes(app, NewHandler(db, storage.NewLocal(), notify.NewBus(10)))
	return app
}

func TestGetCreatesDefaultProfile(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/office", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.OfficeProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "Helm Legal Consulting", profile.OfficeName)
}

func TestUpdateProfile(t *testing.T) {
	app := setupApp(t)

	body, _ := json.Marshal(fiber.Map{
		"office_name":     "Helm Legal Consulting",
		"branch":          "Marina Branch",
		"accounts_name":   "A. Accountant",
		"consultant_email": "office@example.com",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/office", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.OfficeProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
	assert.Equal(t, "Marina Branch", profile.Branch)
	assert.Equal(t, "A. Accountant", profile.AccountsName)
}

func TestUpdateProfileValidation(t *testing.T) {
	app := setupApp(t)

	body, _ := json.Marshal(fiber.Map{
		"office_name":     "",
		"consultant_email": "not-an-email",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/office", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Errors, "office_name")
	assert.Contains(t, out.Errors, "consultant_email")
}

func TestAvatarMissing(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/office/avatar", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
