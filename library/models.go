package library

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Company is a business registered with the library, identified by its CNPJ.
// TaxID is always stored digits-only.
type Company struct {
	ID        int64     `db:"id" json:"id"`
	TaxID     string    `db:"cnpj" json:"cnpj"`
	LegalName string    `db:"razao_social" json:"razao_social"`
	TradeName *string   `db:"nome_fantasia" json:"nome_fantasia"`
	Phone     *string   `db:"numero_contato" json:"numero_contato"`
	Email     *string   `db:"email_contato" json:"email_contato"`
	Website   *string   `db:"website" json:"website"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserKind is the discriminator stored in users.user_type.
type UserKind string

const (
	KindStaff    UserKind = "funcionario"
	KindCustomer UserKind = "cliente"
)

// Customer kinds accepted in CustomerProfile.CustomerType.
const (
	CustomerIndividual = "individual"
	CustomerCorporate  = "corporate"
)

// Profile is the variant payload of a User. It is implemented by StaffProfile
// and CustomerProfile only.
type Profile interface {
	Kind() UserKind
	validate() error
}

// StaffProfile holds the fields of a Funcionário.
type StaffProfile struct {
	Role string `json:"role"`
}

func (StaffProfile) Kind() UserKind { return KindStaff }

// CustomerProfile holds the fields of a Cliente.
type CustomerProfile struct {
	CustomerType string `json:"customer_type"`
	Address      string `json:"address"`
}

func (CustomerProfile) Kind() UserKind { return KindCustomer }

// User is any actor of the system. Shared fields live on the envelope, the
// variant-specific ones in Profile.
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	Profile      Profile    `json:"profile"`
}

// Kind returns the variant tag, or "" for a user without a profile.
func (u *User) Kind() UserKind {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Kind()
}

// Staff returns the staff payload when u is a Funcionário.
func (u *User) Staff() (StaffProfile, bool) {
	p, ok := u.Profile.(StaffProfile)
	return p, ok
}

// Customer returns the customer payload when u is a Cliente.
func (u *User) Customer() (CustomerProfile, bool) {
	p, ok := u.Profile.(CustomerProfile)
	return p, ok
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		Kind UserKind `json:"user_type"`
	}{plain(u), u.Kind()})
}

// userRow is the single-table shape of a user; the variant columns are NULL
// for the other variant.
type userRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	UserType     string         `db:"user_type"`
	Role         sql.NullString `db:"role"`
	CustomerType sql.NullString `db:"customer_type"`
	Address      sql.NullString `db:"address"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at"`
}

func (r userRow) user() (*User, error) {
	u := &User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	switch UserKind(r.UserType) {
	case KindStaff:
		u.Profile = StaffProfile{Role: r.Role.String}
	case KindCustomer:
		u.Profile = CustomerProfile{CustomerType: r.CustomerType.String, Address: r.Address.String}
	default:
		return nil, fmt.Errorf("user %d has unknown user_type %q", r.ID, r.UserType)
	}
	return u, nil
}

// Book is a catalog entry; the lendable units are its BookCopy rows.
type Book struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Author        string    `db:"author" json:"author"`
	ISBN          *string   `db:"isbn" json:"isbn"`
	Publisher     *string   `db:"publisher" json:"publisher"`
	PublishedYear *int      `db:"published_year" json:"published_year"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BookCopy is one physical unit of a Book. Available is false while the copy
// is the subject of an open Borrow.
type BookCopy struct {
	ID        int64     `db:"id" json:"id"`
	BookID    int64     `db:"book_id" json:"book_id"`
	Code      *string   `db:"code" json:"code"`
	Available bool      `db:"available" json:"available"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BorrowStatus is derived from Borrow.ReturnedAt.
type BorrowStatus string

const (
	BorrowOpen     BorrowStatus = "open"
	BorrowReturned BorrowStatus = "returned"
)

// Borrow links a customer (borrower), a staff member (lender) and a copy.
type Borrow struct {
	ID         int64      `db:"id" json:"id"`
	BorrowerID int64      `db:"borrower_id" json:"borrower_id"`
	LenderID   int64      `db:"lender_id" json:"lender_id"`
	CopyID     int64      `db:"copy_id" json:"copy_id"`
	BorrowedAt time.Time  `db:"borrowed_at" json:"borrowed_at"`
	ReturnedAt *time.Time `db:"returned_at" json:"returned_at"`
}

func (b *Borrow) Status() BorrowStatus {
	if b.ReturnedAt == nil {
		return BorrowOpen
	}
	return BorrowReturned
}

func (b Borrow) MarshalJSON() ([]byte, error) {
	type plain Borrow
	return json.Marshal(struct {
		plain
		Status BorrowStatus `json:"status"`
	}{plain(b), b.Status()})
}
