package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/helmlegal/helm-backend/pkg/models"
)

var testOffice = models.OfficeProfile{
	OfficeName:     "Helm Legal Consulting",
	Branch:         "Marina Branch",
	Address:        "Office 1204, Marina Plaza",
	ConsultantMail: "office@example.com",
	AccountsName:   "A. Accountant",
}

func TestRenderClientStatement(t *testing.T) {
	client := models.Client{
		ID:           "CL-001",
		Name:         "Dana K.",
		IDNumber:     "784199012345678",
		AgreedAmount: decimal.NewFromInt(25000),
	}
	entries := []models.LedgerEntry{
		{
			ID: "REC-002", Kind: models.EntryReceipt, ClientID: "CL-001",
			PartyName: "Dana K.", Amount: decimal.NewFromInt(200),
			Date:   time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Status: models.EntryPaid,
		},
		{
			ID: "INV-001", Kind: models.EntryInvoice, ClientID: "CL-001",
			PartyName: "Dana K.", Amount: decimal.NewFromInt(5000),
			Date:   time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
			Status: models.EntryPaid,
		},
		{
			ID: "INV-002", Kind: models.EntryInvoice, ClientID: "CL-002",
			PartyName: "Someone Else", Amount: decimal.NewFromInt(9000),
			Date:   time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC),
			Status: models.EntryPaid,
		},
	}

	doc := RenderClientStatement(testOffice, client, entries)

	assert.Equal(t, "Helm Legal Consulting", doc.Office.OfficeName)
	assert.Equal(t, "CL-001", doc.ClientID)
	assert.Equal(t, "25000.00", doc.AgreedAmount)
	assert.Equal(t, "5200.00", doc.TotalCollected)
	assert.Equal(t, "19800.00", doc.Outstanding)

	// Only this client's entries, in the order given.
	if assert.Len(t, doc.Lines, 2) {
		assert.Equal(t, "2026-08-20", doc.Lines[0].Date)
		assert.Equal(t, "Receipt Voucher REC-002 - Dana K.", doc.Lines[0].Description)
		assert.Equal(t, "200.00", doc.Lines[0].Amount)
		assert.Equal(t, "Invoice INV-001 - Dana K.", doc.Lines[1].Description)
	}
}

func TestRenderClientStatementIsDeterministic(t *testing.T) {
	client := models.Client{ID: "CL-007", Name: "R. Client", AgreedAmount: decimal.NewFromInt(100)}
	entries := []models.LedgerEntry{
		{
			ID: "INV-009", Kind: models.EntryInvoice, ClientID: "CL-007",
			PartyName: "R. Client", Amount: decimal.NewFromInt(40),
			Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Status: models.EntryPaid,
		},
	}

	first := RenderClientStatement(testOffice, client, entries)
	second := RenderClientStatement(testOffice, client, entries)
	assert.Equal(t, first, second)
}

func TestRenderEntryVoucherDirections(t *testing.T) {
	in := models.LedgerEntry{
		ID: "REC-001", Kind: models.EntryReceipt, ClientID: "CL-001",
		PartyName: "Dana K.", Amount: decimal.NewFromInt(1250),
		Date:   time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
		Status: models.EntryPaid,
	}
	doc := RenderEntryVoucher(testOffice, in)
	assert.Equal(t, "Receipt Voucher No. REC-001", doc.Title)
	assert.Contains(t, doc.BodyText, "received from Dana K.")
	assert.Equal(t, "A. Accountant", doc.SignedBy)

	out := in
	out.ID = "COM-001"
	out.Kind = models.EntryCommission
	out.PartyName = "M. Mediator"
	doc = RenderEntryVoucher(testOffice, out)
	assert.Equal(t, "Mediator Commission No. COM-001", doc.Title)
	assert.Contains(t, doc.BodyText, "paid to M. Mediator")
}
