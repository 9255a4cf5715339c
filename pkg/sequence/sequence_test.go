package sequence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Row{}))
	return db
}

func TestNextIssuesSequentialIDs(t *testing.T) {
	db := openTestDB(t)

	for i, want := range []string{"INV-001", "INV-002", "INV-003"} {
		id, err := Next(db, KindInvoice)
		require.NoError(t, err, "issue %d", i+1)
		assert.Equal(t, want, id)
	}
}

func TestNextKeepsKindsIndependent(t *testing.T) {
	db := openTestDB(t)

	inv1, err := Next(db, KindInvoice)
	require.NoError(t, err)
	rec1, err := Next(db, KindReceipt)
	require.NoError(t, err)
	inv2, err := Next(db, KindInvoice)
	require.NoError(t, err)
	cl1, err := Next(db, KindClient)
	require.NoError(t, err)

	assert.Equal(t, "INV-001", inv1)
	assert.Equal(t, "REC-001", rec1)
	assert.Equal(t, "INV-002", inv2)
	assert.Equal(t, "CL-001", cl1)
}

func TestNextSurvivesReopen(t *testing.T) {
	// Same backing store through a second connection: the counter lives in
	// the table, not in process memory.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	first, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, first.AutoMigrate(&Row{}))

	_, err = Next(first, KindExpense)
	require.NoError(t, err)
	_, err = Next(first, KindExpense)
	require.NoError(t, err)

	second, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	id, err := Next(second, KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "EXP-003", id)
}

func TestNextRejectsUnrecognizedKind(t *testing.T) {
	db := openTestDB(t)

	_, err := Next(db, Kind("subscription"))
	require.ErrorIs(t, err, ErrUnrecognizedKind)

	var count int64
	require.NoError(t, db.Model(&Row{}).Count(&count).Error)
	assert.Zero(t, count, "a failed issue must not create a counter row")
}

func TestPrefix(t *testing.T) {
	p, err := Prefix(KindCommission)
	require.NoError(t, err)
	assert.Equal(t, "COM", p)

	_, err = Prefix(Kind(""))
	assert.ErrorIs(t, err, ErrUnrecognizedKind)
}

func TestFormatPadsToThreeDigits(t *testing.T) {
	assert.Equal(t, "INV-007", Format("INV", 7))
	assert.Equal(t, "INV-042", Format("INV", 42))
	assert.Equal(t, "INV-999", Format("INV", 999))
	assert.Equal(t, "INV-1000", Format("INV", 1000))
}
