package finance

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

	"github.com/helmlegal/helm-backend/internal/store"
	"github.com/helmlegal/helm-backend/pkg/httpx"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/notify"
	"github.com/helmlegal/helm-backend/pkg/sequence"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Client{}, &models.Document{}, &models.LedgerEntry{},
		&models.OfficeProfile{}, &sequence.Row{},
	))

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	RegisterRoutes(app, NewHandler(db, store.New(db), notify.NewBus(10)))
	return app
}

func jsonReq(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateEntry(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
		"kind":       "invoice",
		"party_name": "Dana K.",
		"amount":     "5000",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry models.LedgerEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, "INV-001", entry.ID)
	assert.Equal(t, models.EntryPaid, entry.Status)
}

func TestCreateEntryRejectsNonPositiveAmount(t *testing.T) {
	app := setupApp(t)

	for _, amount := range []string{"0", "-50"} {
		resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
			"kind":       "receipt",
			"party_name": "Dana K.",
			"amount":     amount,
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "amount %s", amount)

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "UNPROCESSABLE_ENTITY", body.Code)
	}
}

func TestCreateEntryRejectsUnknownKind(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
		"kind":       "subscription",
		"party_name": "Anyone",
		"amount":     "10",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Errors, "kind")
}

func TestCreateEntryRequiresParty(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
		"kind":   "invoice",
		"amount": "100",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteEntry(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
		"kind":       "invoice",
		"party_name": "Dana K.",
		"amount":     "100",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/entries/INV-001", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/entries/INV-001", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListEntriesUnknownKindFilter(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/entries?kind=subscription", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoucher(t *testing.T) {
	app := setupApp(t)

	resp, err := app.Test(jsonReq(http.MethodPost, "/api/entries", fiber.Map{
		"kind":       "receipt",
		"party_name": "Dana K.",
		"amount":     "1250",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/entries/REC-001/voucher", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Title    string `json:"title"`
		Amount   string `json:"amount"`
		BodyText string `json:"body_text"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "Receipt Voucher No. REC-001", doc.Title)
	assert.Equal(t, "1250.00", doc.Amount)
	assert.Contains(t, doc.BodyText, "received from Dana K.")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/entries/REC-999/voucher", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
