package library

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	log2 "library-backend/log"
)

const (
	maxNameLen     = 128
	maxEmailLen    = 128
	maxRoleLen     = 100
	maxAddressLen  = 255
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
)

// NewUser is the payload of CreateUser. UserType selects the variant; the
// fields of the other variant must be left empty.
type NewUser struct {
	UserType     UserKind `json:"user_type"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Role         string   `json:"role"`
	CustomerType string   `json:"customer_type"`
	Address      string   `json:"address"`
}

// UserUpdate is a partial update. The variant cannot be changed and variant
// fields are only accepted for the matching variant.
type UserUpdate struct {
	Name         Optional[string] `json:"name"`
	Email        Optional[string] `json:"email"`
	Password     Optional[string] `json:"password"`
	Role         Optional[string] `json:"role"`
	CustomerType Optional[string] `json:"customer_type"`
	Address      Optional[string] `json:"address"`
}

// newProfile builds the variant payload selected by kind.
func newProfile(in NewUser) (Profile, error) {
	switch in.UserType {
	case KindStaff:
		if in.CustomerType != "" || in.Address != "" {
			return nil, validationError("customer_type and address are not accepted for %s", KindStaff)
		}
		return StaffProfile{Role: strings.TrimSpace(in.Role)}, nil
	case KindCustomer:
		if in.Role != "" {
			return nil, validationError("role is not accepted for %s", KindCustomer)
		}
		return CustomerProfile{
			CustomerType: strings.TrimSpace(in.CustomerType),
			Address:      strings.TrimSpace(in.Address),
		}, nil
	default:
		return nil, validationError("unknown user_type %q", in.UserType)
	}
}

func (p StaffProfile) validate() error {
	if p.Role == "" {
		return validationError("role is required for %s", KindStaff)
	}
	if len(p.Role) > maxRoleLen {
		return validationError("role exceeds %d characters", maxRoleLen)
	}
	return nil
}

func (p CustomerProfile) validate() error {
	switch p.CustomerType {
	case "", CustomerIndividual, CustomerCorporate:
	default:
		return validationError("customer_type must be %q or %q", CustomerIndividual, CustomerCorporate)
	}
	if len(p.Address) > maxAddressLen {
		return validationError("address exceeds %d characters", maxAddressLen)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return validationError("name is required")
	}
	if len(name) > maxNameLen {
		return validationError("name exceeds %d characters", maxNameLen)
	}
	return nil
}

func validateUserEmail(email string) error {
	if len(email) > maxEmailLen {
		return validationError("email exceeds %d characters", maxEmailLen)
	}
	if !ValidateEmail(email) {
		return validationError("invalid email %q", email)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return validationError("password is required")
	}
	if len(password) > maxPasswordLen {
		return validationError("password exceeds %d bytes", maxPasswordLen)
	}
	return nil
}

func (lm *LibraryManager) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), lm.passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CreateUser stores a new Funcionário or Cliente with a bcrypt password hash.
func (lm *LibraryManager) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	profile, err := newProfile(in)
	if err != nil {
		return nil, err
	}
	u := &User{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Profile: profile,
	}
	if err := validateName(u.Name); err != nil {
		return nil, err
	}
	if err := validateUserEmail(u.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := profile.validate(); err != nil {
		return nil, err
	}
	if u.PasswordHash, err = lm.hashPassword(in.Password); err != nil {
		return nil, err
	}

	err = lm.db.WithSession(ctx, func(s *Session) error {
		taken, err := s.emailTaken(u.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflict("a user with email %s already exists", u.Email)
		}
		u.CreatedAt = lm.now()
		id, err := s.insertUser(u)
		if err != nil {
			return err
		}
		u, err = s.userByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log2.GetLogger(ctx).WithFields(map[string]any{"user_id": u.ID, "user_type": u.Kind()}).Info("user created")
	return u, nil
}

func (lm *LibraryManager) GetUser(ctx context.Context, id int64) (*User, error) {
	var u *User
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		u, err = s.userByID(id)
		return err
	})
	return u, err
}

// ListUsers returns one page of users, optionally restricted to one kind.
func (lm *LibraryManager) ListUsers(ctx context.Context, p Page, kind UserKind) ([]*User, error) {
	switch kind {
	case "", KindStaff, KindCustomer:
	default:
		return nil, validationError("unknown user_type %q", kind)
	}
	var users []*User
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		users, err = s.users(p.normalize(), kind)
		return err
	})
	return users, err
}

// applyProfile returns the profile of a user of the given kind with the
// present variant fields of u applied.
func applyProfile(current Profile, u UserUpdate) (Profile, error) {
	switch p := current.(type) {
	case StaffProfile:
		if u.CustomerType.Present() || u.Address.Present() {
			return nil, validationError("customer_type and address are not accepted for %s", KindStaff)
		}
		if u.Role.Present() {
			role, _ := u.Role.Get()
			p.Role = strings.TrimSpace(role)
		}
		return p, nil
	case CustomerProfile:
		if u.Role.Present() {
			return nil, validationError("role is not accepted for %s", KindCustomer)
		}
		if u.CustomerType.Present() {
			ct, _ := u.CustomerType.Get()
			p.CustomerType = strings.TrimSpace(ct)
		}
		if u.Address.Present() {
			addr, _ := u.Address.Get()
			p.Address = strings.TrimSpace(addr)
		}
		return p, nil
	default:
		return nil, validationError("user has no profile")
	}
}

// UpdateUser applies the present fields of u to user id and sets updated_at.
func (lm *LibraryManager) UpdateUser(ctx context.Context, id int64, u UserUpdate) (*User, error) {
	var user *User
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		if user, err = s.userByID(id); err != nil {
			return err
		}

		if u.Name.Present() {
			name, _ := u.Name.Get()
			user.Name = strings.TrimSpace(name)
			if err := validateName(user.Name); err != nil {
				return err
			}
		}
		if u.Email.Present() {
			email, _ := u.Email.Get()
			user.Email = strings.TrimSpace(email)
			if err := validateUserEmail(user.Email); err != nil {
				return err
			}
		}
		if u.Password.Present() {
			password, _ := u.Password.Get()
			if err := validatePassword(password); err != nil {
				return err
			}
			if user.PasswordHash, err = lm.hashPassword(password); err != nil {
				return err
			}
		}
		if user.Profile, err = applyProfile(user.Profile, u); err != nil {
			return err
		}
		if err := user.Profile.validate(); err != nil {
			return err
		}

		if u.Email.Present() {
			taken, err := s.emailTaken(user.Email, id)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a user with email %s already exists", user.Email)
			}
		}

		now := lm.now()
		user.UpdatedAt = &now
		if err := s.updateUser(user); err != nil {
			return err
		}
		user, err = s.userByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user that is not referenced by any borrow.
func (lm *LibraryManager) DeleteUser(ctx context.Context, id int64) error {
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.userByID(id); err != nil {
			return err
		}
		referenced, err := s.userHasBorrows(id)
		if err != nil {
			return err
		}
		if referenced {
			return conflict("user %d is referenced by borrows", id)
		}
		_, err = s.deleteUser(id)
		return err
	})
	if err != nil {
		return err
	}
	log2.GetLogger(ctx).WithField("user_id", id).Info("user deleted")
	return nil
}

// Authenticate returns the user owning email when password matches its hash.
func (lm *LibraryManager) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u *User
	err := lm.db.WithSession(ctx, func(s *Session) error {
		found, ok, err := s.userByEmail(strings.TrimSpace(email))
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidCredentials
		}
		u = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

// ListBorrowsByBorrower returns the borrows in which user id is the borrower.
func (lm *LibraryManager) ListBorrowsByBorrower(ctx context.Context, id int64, openOnly bool, p Page) ([]*Borrow, error) {
	return lm.borrowsOfUser(ctx, borrowFilter{column: "borrower_id", id: id, openOnly: openOnly}, p)
}

// ListBorrowsByLender returns the borrows processed by staff member id.
func (lm *LibraryManager) ListBorrowsByLender(ctx context.Context, id int64, openOnly bool, p Page) ([]*Borrow, error) {
	return lm.borrowsOfUser(ctx, borrowFilter{column: "lender_id", id: id, openOnly: openOnly}, p)
}

func (lm *LibraryManager) borrowsOfUser(ctx context.Context, f borrowFilter, p Page) ([]*Borrow, error) {
	var borrows []*Borrow
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.userByID(f.id); err != nil {
			return err
		}
		var err error
		borrows, err = s.borrows(f, p.normalize())
		return err
	})
	return borrows, err
}
