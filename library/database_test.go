package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "new db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "lib.db")
	db, err := NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.Ping(context.Background()))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")
	db, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.db.Get(&version, `SELECT value FROM schema_meta WHERE name='schema_version'`))
	assert.Equal(t, schemaVersion, version)
}

func sampleCompany(taxID string) *Company {
	now := time.Now().UTC()
	return &Company{TaxID: taxID, LegalName: "Acme", CreatedAt: now, UpdatedAt: now}
}

func TestWithSessionRollsBackOnError(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithSession(ctx, func(s *Session) error {
		if _, err := s.insertCompany(sampleCompany("12345678000195")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = db.WithSession(ctx, func(s *Session) error {
		companies, err := s.companies(Page{}.normalize())
		require.NoError(t, err)
		assert.Empty(t, companies)
		return nil
	})
	require.NoError(t, err)
}

func TestUniqueViolationIsConflict(t *testing.T) {
	db := tempDB(t)
	err := db.WithSession(context.Background(), func(s *Session) error {
		if _, err := s.insertCompany(sampleCompany("12345678000195")); err != nil {
			return err
		}
		_, err := s.insertCompany(sampleCompany("12345678000195"))
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestForeignKeyViolationIsConflict(t *testing.T) {
	db := tempDB(t)
	err := db.WithSession(context.Background(), func(s *Session) error {
		_, err := s.insertCopy(&BookCopy{BookID: 42, CreatedAt: time.Now().UTC()})
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestOpenBorrowIndexRejectsSecondOpenBorrow(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()
	f := newFixture(t, lm)

	_, err := lm.CreateBorrow(ctx, BorrowRequest{BorrowerID: f.customer.ID, LenderID: f.staff.ID, CopyID: f.copy.ID})
	require.NoError(t, err)

	// Bypass the availability flag to hit the index directly.
	err = lm.db.WithSession(ctx, func(s *Session) error {
		_, err := s.insertBorrow(&Borrow{
			BorrowerID: f.customer.ID,
			LenderID:   f.staff.ID,
			CopyID:     f.copy.ID,
			BorrowedAt: time.Now().UTC(),
		})
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestReset(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	require.NoError(t, db.WithSession(ctx, func(s *Session) error {
		_, err := s.insertCompany(sampleCompany("12345678000195"))
		return err
	}))

	require.NoError(t, db.Reset(ctx))

	require.NoError(t, db.WithSession(ctx, func(s *Session) error {
		companies, err := s.companies(Page{}.normalize())
		assert.Empty(t, companies)
		return err
	}))
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLOptions{Host: "db", Port: 3307, User: "root", Password: "secret", Name: "meu_projeto"}.DSN()
	assert.Contains(t, dsn, "root:secret@tcp(db:3307)/meu_projeto")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
