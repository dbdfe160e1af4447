package library

import (
	"context"
	"strings"

	log2 "library-backend/log"
)

// CompanyInput is the payload of CreateCompany. Blank optional fields are
// stored as NULL.
type CompanyInput struct {
	TaxID     string  `json:"cnpj"`
	LegalName string  `json:"razao_social"`
	TradeName *string `json:"nome_fantasia"`
	Phone     *string `json:"numero_contato"`
	Email     *string `json:"email_contato"`
	Website   *string `json:"website"`
}

// CompanyUpdate is a partial update; absent fields are left untouched and a
// null clears an optional column.
type CompanyUpdate struct {
	TaxID     Optional[string] `json:"cnpj"`
	LegalName Optional[string] `json:"razao_social"`
	TradeName Optional[string] `json:"nome_fantasia"`
	Phone     Optional[string] `json:"numero_contato"`
	Email     Optional[string] `json:"email_contato"`
	Website   Optional[string] `json:"website"`
}

func validateTaxID(taxID string) error {
	if !ValidateTaxID(taxID) {
		return validationError("invalid cnpj %q", taxID)
	}
	return nil
}

func validateContact(email, phone *string) error {
	if email != nil && !ValidateEmail(*email) {
		return validationError("invalid email %q", *email)
	}
	if phone != nil && !ValidatePhone(*phone) {
		return validationError("invalid phone %q", *phone)
	}
	return nil
}

// trimmed returns nil for a nil or blank string.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return nonEmpty(strings.TrimSpace(*s))
}

// applyString overwrites dst when o is present: null or blank clears it.
func applyString(dst **string, o Optional[string]) {
	if !o.Present() {
		return
	}
	*dst = trimmed(o.Ptr())
}

// ListCompanies returns one page of companies ordered by id.
func (lm *LibraryManager) ListCompanies(ctx context.Context, p Page) ([]*Company, error) {
	var companies []*Company
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		companies, err = s.companies(p.normalize())
		return err
	})
	return companies, err
}

func (lm *LibraryManager) GetCompany(ctx context.Context, id int64) (*Company, error) {
	var c *Company
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		c, err = s.companyByID(id)
		return err
	})
	return c, err
}

// GetCompanyByTaxID looks a company up by CNPJ; formatting in taxID is
// ignored.
func (lm *LibraryManager) GetCompanyByTaxID(ctx context.Context, taxID string) (*Company, error) {
	var c *Company
	err := lm.db.WithSession(ctx, func(s *Session) error {
		found, ok, err := s.companyByTaxID(DigitsOnly(taxID))
		if err != nil {
			return err
		}
		if !ok {
			return notFoundf("company with cnpj %q", taxID)
		}
		c = found
		return nil
	})
	return c, err
}

// CreateCompany validates in, then stores it with a digits-only CNPJ.
func (lm *LibraryManager) CreateCompany(ctx context.Context, in CompanyInput) (*Company, error) {
	c := &Company{
		TaxID:     DigitsOnly(in.TaxID),
		LegalName: strings.TrimSpace(in.LegalName),
		TradeName: trimmed(in.TradeName),
		Phone:     trimmed(in.Phone),
		Email:     trimmed(in.Email),
		Website:   trimmed(in.Website),
	}
	if err := validateTaxID(in.TaxID); err != nil {
		return nil, err
	}
	if c.LegalName == "" {
		return nil, validationError("razao_social is required")
	}
	if err := validateContact(c.Email, c.Phone); err != nil {
		return nil, err
	}

	err := lm.db.WithSession(ctx, func(s *Session) error {
		taken, err := s.taxIDTaken(c.TaxID, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflict("a company with cnpj %s already exists", c.TaxID)
		}
		c.CreatedAt = lm.now()
		c.UpdatedAt = c.CreatedAt
		id, err := s.insertCompany(c)
		if err != nil {
			return err
		}
		c, err = s.companyByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log2.GetLogger(ctx).WithField("company_id", c.ID).Info("company created")
	return c, nil
}

// UpdateCompany applies the present fields of u to company id.
func (lm *LibraryManager) UpdateCompany(ctx context.Context, id int64, u CompanyUpdate) (*Company, error) {
	var c *Company
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		if c, err = s.companyByID(id); err != nil {
			return err
		}

		if u.TaxID.Present() {
			taxID, _ := u.TaxID.Get()
			if err := validateTaxID(taxID); err != nil {
				return err
			}
			c.TaxID = DigitsOnly(taxID)
		}
		if u.LegalName.Present() {
			name, _ := u.LegalName.Get()
			if c.LegalName = strings.TrimSpace(name); c.LegalName == "" {
				return validationError("razao_social is required")
			}
		}
		applyString(&c.TradeName, u.TradeName)
		applyString(&c.Phone, u.Phone)
		applyString(&c.Email, u.Email)
		applyString(&c.Website, u.Website)

		var email, phone *string
		if u.Email.Present() {
			email = c.Email
		}
		if u.Phone.Present() {
			phone = c.Phone
		}
		if err := validateContact(email, phone); err != nil {
			return err
		}

		if u.TaxID.Present() {
			taken, err := s.taxIDTaken(c.TaxID, id)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a company with cnpj %s already exists", c.TaxID)
			}
		}

		c.UpdatedAt = lm.now()
		if err := s.updateCompany(c); err != nil {
			return err
		}
		c, err = s.companyByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (lm *LibraryManager) DeleteCompany(ctx context.Context, id int64) error {
	err := lm.db.WithSession(ctx, func(s *Session) error {
		ok, err := s.deleteCompany(id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("company", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log2.GetLogger(ctx).WithField("company_id", id).Info("company deleted")
	return nil
}
