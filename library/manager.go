package library

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Default and maximum page sizes for list operations.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page selects a window of a list result, ordered by id.
type Page struct {
	Offset int `form:"skip" json:"skip"`
	Limit  int `form:"limit" json:"limit"`
}

func (p Page) normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// LibraryManager runs every domain operation in its own unit of work. It is
// safe for concurrent use.
type LibraryManager struct {
	db           *Database
	now          func() time.Time
	passwordCost int
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return NewManager(db), nil
}

// NewManager wraps an opened database. Timestamps are truncated to
// microseconds, the precision of DATETIME(6).
func NewManager(db *Database) *LibraryManager {
	return &LibraryManager{
		db:           db,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		passwordCost: bcrypt.DefaultCost,
	}
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Database exposes the store for health checks and migrations.
func (lm *LibraryManager) Database() *Database { return lm.db }
