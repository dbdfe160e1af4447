package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectMySQL
)

func (d dialect) String() string {
	if d == dialectMySQL {
		return "mysql"
	}
	return "sqlite3"
}

// MySQL error numbers translated to ErrConflict.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	mysqlRowIsReferenced2 = 1217
)

// Database provides the unit-of-work boundary around a SQLite or MySQL pool.
type Database struct {
	db      *sqlx.DB
	dialect dialect
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Immediate transactions make concurrent writers queue on busy_timeout
	// instead of failing when a read lock is upgraded.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newDatabase(context.Background(), db, dialectSQLite)
}

// MySQLOptions describes how to reach the MySQL server.
type MySQLOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// DSN renders the options as a go-sql-driver DSN with utf8mb4 and parsed times.
func (o MySQLOptions) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// NewMySQLDatabase connects to an existing MySQL database and applies schema
// migrations. Use CreateMySQLDatabase first on a fresh server.
func NewMySQLDatabase(ctx context.Context, opts MySQLOptions) (*Database, error) {
	db, err := sqlx.Open("mysql", opts.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return newDatabase(ctx, db, dialectMySQL)
}

// CreateMySQLDatabase creates opts.Name on the server unless it already exists.
func CreateMySQLDatabase(ctx context.Context, opts MySQLOptions) error {
	name := opts.Name
	opts.Name = ""
	db, err := sqlx.Open("mysql", opts.DSN())
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()

	stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", name)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

func newDatabase(ctx context.Context, db *sqlx.DB, d dialect) (*Database, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	database := &Database{db: db, dialect: d}
	if err := database.applyMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close closes the pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the store is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Unit of work
// ---------------------------------------------------------------------------

// Session is one open transaction. It is only valid inside the function passed
// to WithSession.
type Session struct {
	tx      *sqlx.Tx
	dialect dialect
}

// WithSession runs fn inside a single transaction. The transaction is rolled
// back when fn returns an error or panics and committed otherwise.
func (d *Database) WithSession(ctx context.Context, fn func(s *Session) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Session{tx: tx, dialect: d.dialect}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	return nil
}

// get scans one row into dest, reporting false when there is none.
func (s *Session) get(dest any, query string, args ...any) (bool, error) {
	err := s.tx.Get(dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) exists(query string, args ...any) (bool, error) {
	var ok bool
	if err := s.tx.QueryRow(`SELECT EXISTS(`+query+`)`, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Session) exec(query string, args ...any) (sql.Result, error) {
	res, err := s.tx.Exec(query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// execAffected runs a write and reports whether it touched any row.
func (s *Session) execAffected(query string, args ...any) (bool, error) {
	res, err := s.exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Session) insert(query string, args ...any) (int64, error) {
	res, err := s.exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// translateError maps constraint violations reported by either driver to
// ErrConflict and returns every other error unchanged.
func translateError(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: record is referenced: %v", ErrConflict, err)
		}
		return err
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case mysqlRowIsReferenced, mysqlRowIsReferenced2, mysqlNoReferencedRow:
			return fmt.Errorf("%w: record is referenced: %v", ErrConflict, err)
		}
	}
	return err
}
