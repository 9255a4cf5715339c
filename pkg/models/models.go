package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* =============================== Enums ================================== */

// CaseStatus defines the free-standing states a case can be set to.
// Transitions are user-driven; there is no enforced transition table.
type CaseStatus string

const (
	CaseActive      CaseStatus = "active"
	CaseClosed      CaseStatus = "closed"
	CaseUnderReview CaseStatus = "under_review"
)

// EntryKind categorizes a financial record. Invoices and receipts are
// inflows; expenses and mediator commissions are outflows. Amounts are always
// positive; the kind decides the direction.
type EntryKind string

const (
	EntryInvoice    EntryKind = "invoice"
	EntryReceipt    EntryKind = "receipt"
	EntryExpense    EntryKind = "expense"
	EntryCommission EntryKind = "commission"
)

// EntryStatus defines the free-standing states of a ledger entry.
type EntryStatus string

const (
	EntryDraft   EntryStatus = "draft"
	EntrySent    EntryStatus = "sent"
	EntryPaid    EntryStatus = "paid"
	EntryOverdue EntryStatus = "overdue"
)

// ReminderType tags dashboard reminders.
type ReminderType string

const (
	ReminderCase        ReminderType = "case"
	ReminderCollection  ReminderType = "collection"
	ReminderAppointment ReminderType = "appointment"
	ReminderTask        ReminderType = "task"
)

// SystemParty is the party reference on office expenses that are not
// attributed to any client.
const SystemParty = "SYSTEM"

/* =============================== Entities =============================== */

// Client is a retained client of the office. The ID is a human-readable
// sequence id ("CL-001") issued by pkg/sequence and never reused.
type Client struct {
	ID           string          `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Email        string          `gorm:"not null" json:"email"`
	IDNumber     string          `gorm:"not null" json:"id_number"`
	Phone        string          `gorm:"not null" json:"phone"`
	Mediator     string          `json:"mediator,omitempty"`
	AgreedAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"agreed_amount"`
	CreatedAt    time.Time       `json:"created_at"`

	Documents []Document `gorm:"foreignKey:ClientID" json:"documents"`
}

// Document is file metadata attached to a client. The raw bytes live in the
// storage layer; only the metadata tuple is kept here. Documents are created
// on upload and never mutated.
type Document struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID   string    `gorm:"not null;index" json:"client_id"`
	Name       string    `gorm:"not null" json:"name"`
	TypeTag    string    `gorm:"not null" json:"type"` // upper-cased file extension
	Size       string    `gorm:"not null" json:"size"` // human-readable, e.g. "1.2 MB"
	Key        string    `gorm:"not null" json:"-"`    // storage object key
	UploadDate time.Time `json:"upload_date"`
}

// Case is a legal case opened for an existing client. ClientName is a
// snapshot of the client's name at creation time and is not kept in sync
// with later renames.
type Case struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	ClientID    string          `gorm:"not null;index" json:"client_id"`
	ClientName  string          `json:"client_name"`
	Type        string          `gorm:"not null" json:"type"`
	Status      CaseStatus      `gorm:"type:varchar(20);default:'active'" json:"status"`
	StartDate   time.Time       `json:"start_date"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
	CaseFee     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"case_fee"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CaseActivity is an audit row recorded on case creation and status changes.
type CaseActivity struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    string     `gorm:"not null;index" json:"case_id"`
	Action    string     `gorm:"type:varchar(50);not null" json:"action"`
	OldStatus CaseStatus `gorm:"type:varchar(20)" json:"old_status,omitempty"`
	NewStatus CaseStatus `gorm:"type:varchar(20)" json:"new_status,omitempty"`
	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// LedgerEntry generalizes invoice, receipt, expense and commission records.
// ClientID is a non-owning reference; it is empty for free-text payees
// (mediators) and SYSTEM expenses. PartyName is the display-name snapshot.
type LedgerEntry struct {
	ID        string          `gorm:"primaryKey" json:"id"`
	Kind      EntryKind       `gorm:"type:varchar(20);not null;index" json:"kind"`
	ClientID  string          `gorm:"index" json:"client_id,omitempty"`
	PartyName string          `gorm:"not null" json:"party_name"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Date      time.Time       `json:"date"`
	Status    EntryStatus     `gorm:"type:varchar(20);default:'paid'" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// BackupRecord tracks an encrypted backup archive on disk.
type BackupRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileName  string    `gorm:"not null" json:"file_name"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a dashboard task/deadline item.
type Reminder struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string       `gorm:"not null" json:"title"`
	Date      time.Time    `json:"date"`
	Type      ReminderType `gorm:"type:varchar(20);not null" json:"type"`
	Priority  string       `gorm:"type:varchar(10);not null" json:"priority"` // high|medium|low
	CreatedAt time.Time    `json:"created_at"`
}

// OfficeProfile is the single-row office identity used on printed statements
// and vouchers.
type OfficeProfile struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	OfficeName     string    `json:"office_name"`
	Branch         string    `json:"branch"`
	ConsultantName string    `json:"consultant_name"`
	ConsultantMail string    `json:"consultant_email"`
	AccountsName   string    `json:"accounts_name"`
	AccountsMail   string    `json:"accounts_email"`
	Address        string    `json:"address"`
	AvatarKey      string    `json:"avatar_key,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}
