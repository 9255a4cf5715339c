// Package store is the append/remove/query surface over the office's three
// collections: clients, cases and ledger entries. It owns the numeric and
// referential invariants (amounts, client resolution, id issuance) while the
// HTTP edge owns request-shape validation. Every mutation runs as a single
// transaction so the sequence bump and the insert commit together and readers
// never observe a partial write.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/pkg/ledger"
	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/sequence"
	"github.com/helmlegal/helm-backend/pkg/utils"
)

var (
	// ErrNotFound reports a referenced record that does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrInvalidAmount reports a non-positive entry amount or a negative
	// agreed amount / case fee.
	ErrInvalidAmount = errors.New("store: invalid amount")
	// ErrMissingField reports a required field that was empty.
	ErrMissingField = errors.New("store: missing required field")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for collaborators that need raw access
// (backup snapshots, reminders).
func (s *Store) DB() *gorm.DB { return s.db }

/* =============================== Clients ================================ */

type ClientInput struct {
	Name         string
	Email        string
	IDNumber     string
	Phone        string
	Mediator     string
	AgreedAmount decimal.Decimal
}

// AddClient validates the required fields, issues a CL id and stores the
// client with an empty document list.
func (s *Store) AddClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	for field, val := range map[string]string{
		"name": in.Name, "email": in.Email, "id_number": in.IDNumber, "phone": in.Phone,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	if in.AgreedAmount.IsNegative() {
		return nil, fmt.Errorf("%w: agreed_amount", ErrInvalidAmount)
	}

	var client models.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := sequence.Next(tx, sequence.KindClient)
		if err != nil {
			return err
		}
		client = models.Client{
			ID:           id,
			Name:         strings.TrimSpace(in.Name),
			Email:        strings.ToLower(strings.TrimSpace(in.Email)),
			IDNumber:     strings.TrimSpace(in.IDNumber),
			Phone:        strings.TrimSpace(in.Phone),
			Mediator:     strings.TrimSpace(in.Mediator),
			AgreedAmount: in.AgreedAmount,
			CreatedAt:    time.Now(),
		}
		return tx.Create(&client).Error
	})
	if err != nil {
		return nil, err
	}
	client.Documents = []models.Document{}
	return &client, nil
}

// GetClient loads one client with its documents in upload order.
func (s *Store) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("upload_date ASC") }).
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if client.Documents == nil {
		client.Documents = []models.Document{}
	}
	return &client, nil
}

// ListClients returns clients in insertion order, optionally filtered by a
// case-insensitive substring of the name or id number.
func (s *Store) ListClients(ctx context.Context, q string) ([]models.Client, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Client{}).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("upload_date ASC") }).
		Order("created_at ASC")
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("LOWER(name) LIKE ? OR id_number LIKE ?", like, like)
	}
	var clients []models.Client
	if err := dbq.Find(&clients).Error; err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, nil
}

/* ============================== Documents =============================== */

type DocumentMeta struct {
	Name string
	Size int64
	Key  string
}

// AttachDocument appends an uploaded file's metadata to a client. The type
// tag is the upper-cased file extension; the size is stored human-readable.
func (s *Store) AttachDocument(ctx context.Context, clientID string, meta DocumentMeta) (*models.Client, error) {
	if strings.TrimSpace(meta.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	doc := models.Document{
		ID:         uuid.New(),
		ClientID:   client.ID,
		Name:       meta.Name,
		TypeTag:    typeTag(meta.Name),
		Size:       utils.HumanSize(meta.Size),
		Key:        meta.Key,
		UploadDate: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	return s.GetClient(ctx, clientID)
}

// RemoveDocument deletes a document row and returns its storage key so the
// caller can remove the object as well.
func (s *Store) RemoveDocument(ctx context.Context, clientID string, docID uuid.UUID) (string, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).
		First(&doc, "id = ? AND client_id = ?", docID, clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Delete(&doc).Error; err != nil {
		return "", err
	}
	return doc.Key, nil
}

func typeTag(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "FILE"
	}
	return strings.ToUpper(ext)
}

/* ================================ Cases ================================= */

type CaseInput struct {
	Title       string
	ClientID    string
	Type        string
	Deadline    *time.Time
	CaseFee     decimal.Decimal
	Description string
}

// AddCase opens a case for an existing client. The client name is snapshotted
// at creation time; later client renames do not propagate.
func (s *Store) AddCase(ctx context.Context, in CaseInput) (*models.Case, error) {
	for field, val := range map[string]string{
		"title": in.Title, "client_id": in.ClientID, "type": in.Type,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	if in.CaseFee.IsNegative() {
		return nil, fmt.Errorf("%w: case_fee", ErrInvalidAmount)
	}

	var cs models.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, "id = ?", in.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		id, err := sequence.Next(tx, sequence.KindCase)
		if err != nil {
			return err
		}
		cs = models.Case{
			ID:          id,
			Title:       strings.TrimSpace(in.Title),
			ClientID:    client.ID,
			ClientName:  client.Name,
			Type:        strings.TrimSpace(in.Type),
			Status:      models.CaseActive,
			StartDate:   time.Now(),
			Deadline:    in.Deadline,
			CaseFee:     in.CaseFee,
			Description: strings.TrimSpace(in.Description),
			CreatedAt:   time.Now(),
		}
		return tx.Create(&cs).Error
	})
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// GetCase loads one case.
func (s *Store) GetCase(ctx context.Context, id string) (*models.Case, error) {
	var cs models.Case
	err := s.db.WithContext(ctx).First(&cs, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// ListCases returns cases in insertion order, optionally filtered by a
// case-insensitive substring of title or client name.
func (s *Store) ListCases(ctx context.Context, q string) ([]models.Case, error) {
	dbq := s.db.WithContext(ctx).Model(&models.Case{}).Order("created_at ASC")
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("LOWER(title) LIKE ? OR LOWER(client_name) LIKE ?", like, like)
	}
	var cases []models.Case
	if err := dbq.Find(&cases).Error; err != nil {
		return nil, err
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, nil
}

// UpdateCaseStatus sets a case's status. There is no transition table; any
// value of the enumeration is accepted at any time.
func (s *Store) UpdateCaseStatus(ctx context.Context, id string, status models.CaseStatus) (models.CaseStatus, error) {
	var cs models.Case
	err := s.db.WithContext(ctx).First(&cs, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	old := cs.Status
	if err := s.db.WithContext(ctx).Model(&cs).Update("status", status).Error; err != nil {
		return "", err
	}
	return old, nil
}

/* ============================ Ledger entries ============================ */

type EntryInput struct {
	ClientID  string
	PartyName string
	Amount    decimal.Decimal
	Date      *time.Time
	Status    models.EntryStatus
}

var entryKinds = map[models.EntryKind]sequence.Kind{
	models.EntryInvoice:    sequence.KindInvoice,
	models.EntryReceipt:    sequence.KindReceipt,
	models.EntryExpense:    sequence.KindExpense,
	models.EntryCommission: sequence.KindCommission,
}

// AddEntry records a financial entry of the given kind. Amounts must be
// strictly positive; the kind, not the sign, decides cash-flow direction.
// For kinds other than expense the payer/payee may be an existing client
// (by id, name snapshotted) or a free-text name (mediators). Expenses carry a
// description in place of a party and reference SYSTEM.
func (s *Store) AddEntry(ctx context.Context, kind models.EntryKind, in EntryInput) (*models.LedgerEntry, error) {
	seqKind, ok := entryKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sequence.ErrUnrecognizedKind, kind)
	}
	if in.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount", ErrInvalidAmount)
	}
	// Expenses carry a description in the party slot; other kinds need a
	// client reference or a free-text payer.
	if kind == models.EntryExpense {
		if strings.TrimSpace(in.PartyName) == "" {
			return nil, fmt.Errorf("%w: party_name", ErrMissingField)
		}
	} else if strings.TrimSpace(in.PartyName) == "" && strings.TrimSpace(in.ClientID) == "" {
		return nil, fmt.Errorf("%w: party_name", ErrMissingField)
	}

	var entry models.LedgerEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clientID := strings.TrimSpace(in.ClientID)
		party := strings.TrimSpace(in.PartyName)

		if kind == models.EntryExpense {
			clientID = models.SystemParty
		} else if clientID != "" {
			var client models.Client
			if err := tx.First(&client, "id = ?", clientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if party == "" {
				party = client.Name
			}
		}

		id, err := sequence.Next(tx, seqKind)
		if err != nil {
			return err
		}

		status := in.Status
		if status == "" {
			status = models.EntryPaid
		}
		date := time.Now()
		if in.Date != nil {
			date = *in.Date
		}

		entry = models.LedgerEntry{
			ID:        id,
			Kind:      kind,
			ClientID:  clientID,
			PartyName: party,
			Amount:    in.Amount,
			Date:      date,
			Status:    status,
			CreatedAt: time.Now(),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetEntry loads one ledger entry.
func (s *Store) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveEntry deletes an entry. The id is never reissued: the sequence
// counter is independent of the live collection.
func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.LedgerEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries returns entries newest-first, optionally filtered by kind and
// by a case-insensitive substring of the party name or document number.
func (s *Store) ListEntries(ctx context.Context, q string, kind models.EntryKind) ([]models.LedgerEntry, error) {
	dbq := s.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Order("created_at DESC, id DESC")
	if kind != "" {
		dbq = dbq.Where("kind = ?", kind)
	}
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("LOWER(party_name) LIKE ? OR LOWER(id) LIKE ?", like, like)
	}
	var entries []models.LedgerEntry
	if err := dbq.Find(&entries).Error; err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

// EntriesForClient returns the entries attributed to a client, newest-first.
func (s *Store) EntriesForClient(ctx context.Context, clientID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

// ClientBalance loads a client's entries and derives the balance triple.
func (s *Store) ClientBalance(ctx context.Context, clientID string) (ledger.Balance, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return ledger.Balance{}, err
	}
	entries, err := s.EntriesForClient(ctx, clientID)
	if err != nil {
		return ledger.Balance{}, err
	}
	return ledger.ClientBalance(client.ID, client.AgreedAmount, entries), nil
}
