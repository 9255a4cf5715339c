// Package backup implements the backup center: encrypted archives of the
// whole office database that can be downloaded, kept offsite and restored.
//
// An archive is a zip holding one snapshot.json, sealed with
// XChaCha20-Poly1305. The key is derived from the BACKUP_KEY secret, so a
// leaked archive file is useless without the server configuration.
package backup

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"gorm.io/gorm"

	"github.com/helmlegal/helm-backend/pkg/models"
	"github.com/helmlegal/helm-backend/pkg/sequence"
)

// ErrBadArchive reports an archive that could not be decrypted or parsed,
// typically a wrong key or a truncated file.
var ErrBadArchive = errors.New("backup: invalid or corrupted archive")

const snapshotName = "snapshot.json"

// Snapshot is the full office state, including the id sequences so restored
// databases keep issuing numbers past the highest ever used.
type Snapshot struct {
	CreatedAt time.Time              `json:"created_at"`
	Clients   []models.Client        `json:"clients"`
	Documents []models.Document      `json:"documents"`
	Cases     []models.Case          `json:"cases"`
	Activity  []models.CaseActivity  `json:"activity"`
	Entries   []models.LedgerEntry   `json:"entries"`
	Reminders []models.Reminder      `json:"reminders"`
	Office    []models.OfficeProfile `json:"office"`
	Sequences []sequence.Row         `json:"sequences"`
}

// TakeSnapshot reads every table into a Snapshot.
func TakeSnapshot(db *gorm.DB) (*Snapshot, error) {
	snap := &Snapshot{CreatedAt: time.Now()}
	for _, dst := range []any{
		&snap.Clients, &snap.Documents, &snap.Cases, &snap.Activity,
		&snap.Entries, &snap.Reminders, &snap.Office, &snap.Sequences,
	} {
		if err := db.Find(dst).Error; err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	return snap, nil
}

// Restore replaces the database contents with the snapshot, atomically.
func (s *Snapshot) Restore(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.Document{}, &models.CaseActivity{}, &models.Case{},
			&models.LedgerEntry{}, &models.Reminder{}, &models.Client{},
			&models.OfficeProfile{}, &sequence.Row{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		for _, batch := range []struct {
			rows any
			n    int
		}{
			{&s.Clients, len(s.Clients)},
			{&s.Documents, len(s.Documents)},
			{&s.Cases, len(s.Cases)},
			{&s.Activity, len(s.Activity)},
			{&s.Entries, len(s.Entries)},
			{&s.Reminders, len(s.Reminders)},
			{&s.Office, len(s.Office)},
			{&s.Sequences, len(s.Sequences)},
		} {
			if batch.n == 0 {
				continue
			}
			if err := tx.Create(batch.rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeriveKey turns the configured secret into a cipher key.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// BuildArchive serializes, compresses and seals a snapshot.
func BuildArchive(snap *Snapshot, key []byte) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	f, err := zw.Create(snapshotName)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, zipped.Bytes(), nil), nil
}

// OpenArchive reverses BuildArchive. Any tampering, truncation or wrong key
// surfaces as ErrBadArchive.
func OpenArchive(blob, key []byte) (*Snapshot, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < aead.NonceSize() {
		return nil, ErrBadArchive
	}
	nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	zipped, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrBadArchive
	}

	zr, err := zip.NewReader(bytes.NewReader(zipped), int64(len(zipped)))
	if err != nil {
		return nil, ErrBadArchive
	}
	var raw []byte
	for _, f := range zr.File {
		if f.Name != snapshotName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, ErrBadArchive
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, ErrBadArchive
		}
	}
	if raw == nil {
		return nil, ErrBadArchive
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, ErrBadArchive
	}
	return &snap, nil
}
