// Package ledger holds the pure financial projections: running balances and
// printable statement/voucher documents. Nothing here touches the database;
// callers load the records and hand them in.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/helmlegal/helm-backend/pkg/models"
)

// Balance is the agreed/collected/outstanding triple for a client.
type Balance struct {
	Agreed      decimal.Decimal `json:"agreed"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// Collectable reports whether an entry counts toward a client's collected
// total: only paid invoices and receipts do. Expenses and mediator
// commissions never reduce what a client owes.
func Collectable(e models.LedgerEntry) bool {
	if e.Status != models.EntryPaid {
		return false
	}
	return e.Kind == models.EntryInvoice || e.Kind == models.EntryReceipt
}

// ClientBalance derives the balance for one client from the agreed amount and
// the entries attributed to it. Attribution is by stable client id; party
// names are display-only snapshots. Outstanding is never clamped:
// over-collection yields a negative outstanding and that is a valid state.
func ClientBalance(clientID string, agreed decimal.Decimal, entries []models.LedgerEntry) Balance {
	collected := decimal.Zero
	for _, e := range entries {
		if e.ClientID != clientID {
			continue
		}
		if Collectable(e) {
			collected = collected.Add(e.Amount)
		}
	}
	return Balance{
		Agreed:      agreed,
		Collected:   collected,
		Outstanding: agreed.Sub(collected),
	}
}
