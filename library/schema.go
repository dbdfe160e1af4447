package library

import (
	"context"
	"fmt"
)

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

// Drop order respects foreign keys.
var tables = []string{"borrows", "book_copies", "books", "users", "companies", "schema_meta"}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cnpj TEXT NOT NULL UNIQUE,
        razao_social TEXT NOT NULL,
        nome_fantasia TEXT,
        numero_contato TEXT,
        email_contato TEXT,
        website TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        email TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        user_type TEXT NOT NULL,
        role TEXT,
        customer_type TEXT,
        address TEXT,
        created_at DATETIME NOT NULL,
        updated_at DATETIME
    );`,
	`CREATE TABLE IF NOT EXISTS books (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        isbn TEXT UNIQUE,
        publisher TEXT,
        published_year INTEGER,
        created_at DATETIME NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS book_copies (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        book_id INTEGER NOT NULL REFERENCES books(id),
        code TEXT UNIQUE,
        available BOOLEAN NOT NULL DEFAULT 1,
        created_at DATETIME NOT NULL
    );`,
	`CREATE TABLE IF NOT EXISTS borrows (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        borrower_id INTEGER NOT NULL REFERENCES users(id),
        lender_id INTEGER NOT NULL REFERENCES users(id),
        copy_id INTEGER NOT NULL REFERENCES book_copies(id),
        borrowed_at DATETIME NOT NULL,
        returned_at DATETIME
    );`,
	`CREATE INDEX IF NOT EXISTS idx_book_copies_book ON book_copies(book_id);`,
	`CREATE INDEX IF NOT EXISTS idx_borrows_borrower ON borrows(borrower_id);`,
	`CREATE INDEX IF NOT EXISTS idx_borrows_lender ON borrows(lender_id);`,
	// At most one open borrow per copy.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrows_open_copy ON borrows(copy_id) WHERE returned_at IS NULL;`,
}

var mysqlSchema = []string{
	"CREATE TABLE IF NOT EXISTS companies (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"cnpj VARCHAR(14) NOT NULL," +
		"razao_social VARCHAR(255) NOT NULL," +
		"nome_fantasia VARCHAR(255) NULL," +
		"numero_contato VARCHAR(20) NULL," +
		"email_contato VARCHAR(255) NULL," +
		"website VARCHAR(255) NULL," +
		"created_at DATETIME(6) NOT NULL," +
		"updated_at DATETIME(6) NOT NULL," +
		"UNIQUE KEY uq_companies_cnpj (cnpj)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS users (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"name VARCHAR(128) NOT NULL," +
		"email VARCHAR(128) NOT NULL," +
		"password_hash VARCHAR(256) NOT NULL," +
		"user_type VARCHAR(50) NOT NULL," +
		"role VARCHAR(100) NULL," +
		"customer_type VARCHAR(50) NULL," +
		"address VARCHAR(255) NULL," +
		"created_at DATETIME(6) NOT NULL," +
		"updated_at DATETIME(6) NULL," +
		"UNIQUE KEY uq_users_email (email)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS books (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"title VARCHAR(255) NOT NULL," +
		"author VARCHAR(255) NOT NULL," +
		"isbn VARCHAR(20) NULL," +
		"publisher VARCHAR(255) NULL," +
		"published_year INT NULL," +
		"created_at DATETIME(6) NOT NULL," +
		"UNIQUE KEY uq_books_isbn (isbn)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS book_copies (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"book_id BIGINT NOT NULL," +
		"code VARCHAR(64) NULL," +
		"available TINYINT(1) NOT NULL DEFAULT 1," +
		"created_at DATETIME(6) NOT NULL," +
		"UNIQUE KEY uq_book_copies_code (code)," +
		"KEY idx_book_copies_book (book_id)," +
		"CONSTRAINT fk_book_copies_book FOREIGN KEY (book_id) REFERENCES books(id)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	// open_copy_id is NULL once returned; the unique key allows one open
	// borrow per copy since MySQL has no partial indexes.
	"CREATE TABLE IF NOT EXISTS borrows (" +
		"id BIGINT AUTO_INCREMENT PRIMARY KEY," +
		"borrower_id BIGINT NOT NULL," +
		"lender_id BIGINT NOT NULL," +
		"copy_id BIGINT NOT NULL," +
		"borrowed_at DATETIME(6) NOT NULL," +
		"returned_at DATETIME(6) NULL," +
		"open_copy_id BIGINT GENERATED ALWAYS AS (IF(returned_at IS NULL, copy_id, NULL)) STORED," +
		"UNIQUE KEY uq_borrows_open_copy (open_copy_id)," +
		"KEY idx_borrows_borrower (borrower_id)," +
		"KEY idx_borrows_lender (lender_id)," +
		"KEY idx_borrows_copy (copy_id)," +
		"CONSTRAINT fk_borrows_borrower FOREIGN KEY (borrower_id) REFERENCES users(id)," +
		"CONSTRAINT fk_borrows_lender FOREIGN KEY (lender_id) REFERENCES users(id)," +
		"CONSTRAINT fk_borrows_copy FOREIGN KEY (copy_id) REFERENCES book_copies(id)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

func (d *Database) applyMigrations(ctx context.Context) error {
	if d.dialect == dialectSQLite {
		// WAL improves write concurrency.
		if _, err := d.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_meta (name VARCHAR(64) PRIMARY KEY, value VARCHAR(255))`); err != nil {
		return fmt.Errorf("create schema_meta: %w", err)
	}

	var current int
	_ = d.db.QueryRowContext(ctx, `SELECT value FROM schema_meta WHERE name='schema_version'`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	stmts := sqliteSchema
	upsert := `INSERT INTO schema_meta(name,value) VALUES('schema_version',?)
        ON CONFLICT(name) DO UPDATE SET value=excluded.value`
	if d.dialect == dialectMySQL {
		stmts = mysqlSchema
		upsert = `INSERT INTO schema_meta(name,value) VALUES('schema_version',?)
        ON DUPLICATE KEY UPDATE value=VALUES(value)`
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(upsert, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Reset drops every table and recreates the schema. All data is lost.
func (d *Database) Reset(ctx context.Context) error {
	for _, table := range tables {
		if _, err := d.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return d.applyMigrations(ctx)
}
