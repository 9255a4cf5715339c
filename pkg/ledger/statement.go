package ledger

import (
	"fmt"

	"github.com/helmlegal/helm-backend/pkg/models"
)

const dateLayout = "2006-01-02"

// kindLabels are the display names used on printed documents.
var kindLabels = map[models.EntryKind]string{
	models.EntryInvoice:    "Invoice",
	models.EntryReceipt:    "Receipt Voucher",
	models.EntryExpense:    "Expense",
	models.EntryCommission: "Mediator Commission",
}

// OfficeHeader is the letterhead block shared by all printable documents.
type OfficeHeader struct {
	OfficeName string `json:"office_name"`
	Branch     string `json:"branch"`
	Address    string `json:"address"`
	Email      string `json:"email"`
}

// StatementLine is one row of a client statement.
type StatementLine struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

// StatementDocument is the fixed projection of a client's financial history.
// It carries no presentation concerns; the print/export sink renders it.
type StatementDocument struct {
	Office         OfficeHeader    `json:"office"`
	ClientName     string          `json:"client_name"`
	ClientID       string          `json:"client_id"`
	IDNumber       string          `json:"id_number"`
	AgreedAmount   string          `json:"agreed_amount"`
	Lines          []StatementLine `json:"lines"`
	TotalCollected string          `json:"total_collected"`
	Outstanding    string          `json:"outstanding"`
}

// VoucherDocument is the printable projection of a single ledger entry.
type VoucherDocument struct {
	Office    OfficeHeader `json:"office"`
	Title     string       `json:"title"`
	EntryID   string       `json:"entry_id"`
	Kind      string       `json:"kind"`
	PartyName string       `json:"party_name"`
	Amount    string       `json:"amount"`
	Date      string       `json:"date"`
	Status    string       `json:"status"`
	BodyText  string       `json:"body_text"`
	SignedBy  string       `json:"signed_by"`
}

func headerFor(office models.OfficeProfile) OfficeHeader {
	return OfficeHeader{
		OfficeName: office.OfficeName,
		Branch:     office.Branch,
		Address:    office.Address,
		Email:      office.ConsultantMail,
	}
}

// RenderClientStatement projects a client and its attributed entries into the
// fixed statement layout. It is a pure function: same inputs, same document.
// Entries are emitted in the order given; callers pass them newest-first the
// way the store lists them.
func RenderClientStatement(office models.OfficeProfile, client models.Client, entries []models.LedgerEntry) StatementDocument {
	lines := make([]StatementLine, 0, len(entries))
	for _, e := range entries {
		if e.ClientID != client.ID {
			continue
		}
		lines = append(lines, StatementLine{
			Date:        e.Date.Format(dateLayout),
			Description: fmt.Sprintf("%s %s - %s", kindLabels[e.Kind], e.ID, e.PartyName),
			Amount:      e.Amount.StringFixed(2),
			Status:      string(e.Status),
		})
	}

	bal := ClientBalance(client.ID, client.AgreedAmount, entries)
	return StatementDocument{
		Office:         headerFor(office),
		ClientName:     client.Name,
		ClientID:       client.ID,
		IDNumber:       client.IDNumber,
		AgreedAmount:   bal.Agreed.StringFixed(2),
		Lines:          lines,
		TotalCollected: bal.Collected.StringFixed(2),
		Outstanding:    bal.Outstanding.StringFixed(2),
	}
}

// RenderEntryVoucher projects one ledger entry into the printable voucher
// layout used for invoices, receipts, expenses and commissions.
func RenderEntryVoucher(office models.OfficeProfile, e models.LedgerEntry) VoucherDocument {
	label := kindLabels[e.Kind]
	verb := "received from"
	if e.Kind == models.EntryExpense || e.Kind == models.EntryCommission {
		verb = "paid to"
	}
	return VoucherDocument{
		Office:    headerFor(office),
		Title:     fmt.Sprintf("%s No. %s", label, e.ID),
		EntryID:   e.ID,
		Kind:      string(e.Kind),
		PartyName: e.PartyName,
		Amount:    e.Amount.StringFixed(2),
		Date:      e.Date.Format(dateLayout),
		Status:    string(e.Status),
		BodyText: fmt.Sprintf("The amount of %s AED was %s %s for the agreed legal fees and expenses.",
			e.Amount.StringFixed(2), verb, e.PartyName),
		SignedBy: office.AccountsName,
	}
}
