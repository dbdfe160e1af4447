package library

import (
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Companies
// ---------------------------------------------------------------------------

const companyColumns = `id, cnpj, razao_social, nome_fantasia, numero_contato, email_contato, website, created_at, updated_at`

func (s *Session) companies(p Page) ([]*Company, error) {
	companies := []*Company{}
	err := s.tx.Select(&companies, `SELECT `+companyColumns+` FROM companies ORDER BY id LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	return companies, err
}

func (s *Session) companyByID(id int64) (*Company, error) {
	var c Company
	ok, err := s.get(&c, `SELECT `+companyColumns+` FROM companies WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("company", id)
	}
	return &c, nil
}

// companyByTaxID expects an already normalised cnpj.
func (s *Session) companyByTaxID(taxID string) (*Company, bool, error) {
	var c Company
	ok, err := s.get(&c, `SELECT `+companyColumns+` FROM companies WHERE cnpj=?`, taxID)
	if err != nil || !ok {
		return nil, false, err
	}
	return &c, true, nil
}

// taxIDTaken reports whether a company other than exceptID owns taxID.
func (s *Session) taxIDTaken(taxID string, exceptID int64) (bool, error) {
	return s.exists(`SELECT 1 FROM companies WHERE cnpj=? AND id<>?`, taxID, exceptID)
}

func (s *Session) insertCompany(c *Company) (int64, error) {
	return s.insert(`INSERT INTO companies(cnpj,razao_social,nome_fantasia,numero_contato,email_contato,website,created_at,updated_at)
        VALUES(?,?,?,?,?,?,?,?)`,
		c.TaxID, c.LegalName, c.TradeName, c.Phone, c.Email, c.Website, c.CreatedAt, c.UpdatedAt)
}

func (s *Session) updateCompany(c *Company) error {
	_, err := s.exec(`UPDATE companies SET cnpj=?, razao_social=?, nome_fantasia=?, numero_contato=?, email_contato=?, website=?, updated_at=?
        WHERE id=?`,
		c.TaxID, c.LegalName, c.TradeName, c.Phone, c.Email, c.Website, c.UpdatedAt, c.ID)
	return err
}

func (s *Session) deleteCompany(id int64) (bool, error) {
	return s.execAffected(`DELETE FROM companies WHERE id=?`, id)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

const userColumns = `id, name, email, password_hash, user_type, role, customer_type, address, created_at, updated_at`

func (s *Session) users(p Page, kind UserKind) ([]*User, error) {
	var rows []userRow
	var err error
	if kind == "" {
		err = s.tx.Select(&rows, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	} else {
		err = s.tx.Select(&rows, `SELECT `+userColumns+` FROM users WHERE user_type=? ORDER BY id LIMIT ? OFFSET ?`, string(kind), p.Limit, p.Offset)
	}
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(rows))
	for _, r := range rows {
		u, err := r.user()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Session) userByID(id int64) (*User, error) {
	var r userRow
	ok, err := s.get(&r, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("user", id)
	}
	return r.user()
}

func (s *Session) userByEmail(email string) (*User, bool, error) {
	var r userRow
	ok, err := s.get(&r, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
	if err != nil || !ok {
		return nil, false, err
	}
	u, err := r.user()
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// emailTaken checks every variant: the discriminator does not partition the
// uniqueness space.
func (s *Session) emailTaken(email string, exceptID int64) (bool, error) {
	return s.exists(`SELECT 1 FROM users WHERE email=? AND id<>?`, email, exceptID)
}

// profileColumns returns role, customer_type and address, NULL where the
// variant has no such field.
func profileColumns(p Profile) (role, customerType, address *string) {
	switch v := p.(type) {
	case StaffProfile:
		role = &v.Role
	case CustomerProfile:
		customerType = nonEmpty(v.CustomerType)
		address = nonEmpty(v.Address)
	}
	return role, customerType, address
}

func (s *Session) insertUser(u *User) (int64, error) {
	role, customerType, address := profileColumns(u.Profile)
	return s.insert(`INSERT INTO users(name,email,password_hash,user_type,role,customer_type,address,created_at)
        VALUES(?,?,?,?,?,?,?,?)`,
		u.Name, u.Email, u.PasswordHash, string(u.Kind()), role, customerType, address, u.CreatedAt)
}

func (s *Session) updateUser(u *User) error {
	role, customerType, address := profileColumns(u.Profile)
	_, err := s.exec(`UPDATE users SET name=?, email=?, password_hash=?, role=?, customer_type=?, address=?, updated_at=?
        WHERE id=?`,
		u.Name, u.Email, u.PasswordHash, role, customerType, address, u.UpdatedAt, u.ID)
	return err
}

func (s *Session) deleteUser(id int64) (bool, error) {
	return s.execAffected(`DELETE FROM users WHERE id=?`, id)
}

func (s *Session) userHasBorrows(id int64) (bool, error) {
	return s.exists(`SELECT 1 FROM borrows WHERE borrower_id=? OR lender_id=?`, id, id)
}

// ---------------------------------------------------------------------------
// Books and copies
// ---------------------------------------------------------------------------

const bookColumns = `id, title, author, isbn, publisher, published_year, created_at`

func (s *Session) books(p Page) ([]*Book, error) {
	books := []*Book{}
	err := s.tx.Select(&books, `SELECT `+bookColumns+` FROM books ORDER BY id LIMIT ? OFFSET ?`, p.Limit, p.Offset)
	return books, err
}

// likeEscaper uses '!' as the escape character, which needs no quoting in
// either dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchBooks matches q as a substring of title or author.
func (s *Session) searchBooks(q string, p Page) ([]*Book, error) {
	pattern := "%" + likeEscaper.Replace(q) + "%"
	books := []*Book{}
	err := s.tx.Select(&books, `SELECT `+bookColumns+` FROM books
        WHERE title LIKE ? ESCAPE '!' OR author LIKE ? ESCAPE '!'
        ORDER BY id LIMIT ? OFFSET ?`, pattern, pattern, p.Limit, p.Offset)
	return books, err
}

func (s *Session) bookByID(id int64) (*Book, error) {
	var b Book
	ok, err := s.get(&b, `SELECT `+bookColumns+` FROM books WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("book", id)
	}
	return &b, nil
}

func (s *Session) isbnTaken(isbn string, exceptID int64) (bool, error) {
	return s.exists(`SELECT 1 FROM books WHERE isbn=? AND id<>?`, isbn, exceptID)
}

func (s *Session) insertBook(b *Book) (int64, error) {
	return s.insert(`INSERT INTO books(title,author,isbn,publisher,published_year,created_at) VALUES(?,?,?,?,?,?)`,
		b.Title, b.Author, b.ISBN, b.Publisher, b.PublishedYear, b.CreatedAt)
}

func (s *Session) updateBook(b *Book) error {
	_, err := s.exec(`UPDATE books SET title=?, author=?, isbn=?, publisher=?, published_year=? WHERE id=?`,
		b.Title, b.Author, b.ISBN, b.Publisher, b.PublishedYear, b.ID)
	return err
}

func (s *Session) deleteBook(id int64) (bool, error) {
	return s.execAffected(`DELETE FROM books WHERE id=?`, id)
}

func (s *Session) bookHasCopies(id int64) (bool, error) {
	return s.exists(`SELECT 1 FROM book_copies WHERE book_id=?`, id)
}

const copyColumns = `id, book_id, code, available, created_at`

func (s *Session) copiesOf(bookID int64) ([]*BookCopy, error) {
	copies := []*BookCopy{}
	err := s.tx.Select(&copies, `SELECT `+copyColumns+` FROM book_copies WHERE book_id=? ORDER BY id`, bookID)
	return copies, err
}

func (s *Session) copyByID(id int64) (*BookCopy, error) {
	var c BookCopy
	ok, err := s.get(&c, `SELECT `+copyColumns+` FROM book_copies WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("copy", id)
	}
	return &c, nil
}

func (s *Session) codeTaken(code string, exceptID int64) (bool, error) {
	return s.exists(`SELECT 1 FROM book_copies WHERE code=? AND id<>?`, code, exceptID)
}

func (s *Session) insertCopy(c *BookCopy) (int64, error) {
	return s.insert(`INSERT INTO book_copies(book_id,code,available,created_at) VALUES(?,?,?,?)`,
		c.BookID, c.Code, true, c.CreatedAt)
}

func (s *Session) updateCopyCode(id int64, code *string) error {
	_, err := s.exec(`UPDATE book_copies SET code=? WHERE id=?`, code, id)
	return err
}

func (s *Session) deleteCopy(id int64) (bool, error) {
	return s.execAffected(`DELETE FROM book_copies WHERE id=?`, id)
}

func (s *Session) copyHasBorrows(id int64) (bool, error) {
	return s.exists(`SELECT 1 FROM borrows WHERE copy_id=?`, id)
}

// markCopyLent flips available to false only if it is still true, so of two
// concurrent borrows exactly one sees a changed row.
func (s *Session) markCopyLent(id int64) (bool, error) {
	return s.execAffected(`UPDATE book_copies SET available=? WHERE id=? AND available=?`, false, id, true)
}

func (s *Session) markCopyAvailable(id int64) error {
	_, err := s.exec(`UPDATE book_copies SET available=? WHERE id=?`, true, id)
	return err
}

// ---------------------------------------------------------------------------
// Borrows
// ---------------------------------------------------------------------------

const borrowColumns = `id, borrower_id, lender_id, copy_id, borrowed_at, returned_at`

// borrowFilter selects borrows by one optional column and open state.
type borrowFilter struct {
	column   string // "", "borrower_id", "lender_id" or "copy_id"
	id       int64
	openOnly bool
}

func (s *Session) borrows(f borrowFilter, p Page) ([]*Borrow, error) {
	var (
		where []string
		args  []any
	)
	if f.column != "" {
		where = append(where, f.column+"=?")
		args = append(args, f.id)
	}
	if f.openOnly {
		where = append(where, "returned_at IS NULL")
	}
	query := `SELECT ` + borrowColumns + ` FROM borrows`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset)

	borrows := []*Borrow{}
	err := s.tx.Select(&borrows, query, args...)
	return borrows, err
}

func (s *Session) borrowByID(id int64) (*Borrow, error) {
	var b Borrow
	ok, err := s.get(&b, `SELECT `+borrowColumns+` FROM borrows WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("borrow", id)
	}
	return &b, nil
}

func (s *Session) insertBorrow(b *Borrow) (int64, error) {
	return s.insert(`INSERT INTO borrows(borrower_id,lender_id,copy_id,borrowed_at) VALUES(?,?,?,?)`,
		b.BorrowerID, b.LenderID, b.CopyID, b.BorrowedAt)
}

// closeBorrow sets returned_at only on an open borrow.
func (s *Session) closeBorrow(id int64, at time.Time) (bool, error) {
	return s.execAffected(`UPDATE borrows SET returned_at=? WHERE id=? AND returned_at IS NULL`, at, id)
}

func (s *Session) deleteBorrow(id int64) (bool, error) {
	return s.execAffected(`DELETE FROM borrows WHERE id=?`, id)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
