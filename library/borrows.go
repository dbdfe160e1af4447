package library

import (
	"context"

	log2 "library-backend/log"
)

// BorrowRequest opens a borrow: staff member LenderID lends copy CopyID to
// customer BorrowerID.
type BorrowRequest struct {
	BorrowerID int64 `json:"borrower_id"`
	LenderID   int64 `json:"lender_id"`
	CopyID     int64 `json:"copy_id"`
}

// CreateBorrow opens a borrow and marks the copy unavailable. A copy with an
// open borrow yields ErrConflict, also when two requests race for it.
func (lm *LibraryManager) CreateBorrow(ctx context.Context, req BorrowRequest) (*Borrow, error) {
	var b *Borrow
	err := lm.db.WithSession(ctx, func(s *Session) error {
		borrower, err := s.userByID(req.BorrowerID)
		if err != nil {
			return err
		}
		if borrower.Kind() != KindCustomer {
			return validationError("borrower %d is not a %s", borrower.ID, KindCustomer)
		}
		lender, err := s.userByID(req.LenderID)
		if err != nil {
			return err
		}
		if lender.Kind() != KindStaff {
			return validationError("lender %d is not a %s", lender.ID, KindStaff)
		}
		if _, err := s.copyByID(req.CopyID); err != nil {
			return err
		}

		lent, err := s.markCopyLent(req.CopyID)
		if err != nil {
			return err
		}
		if !lent {
			return conflict("copy %d is already lent", req.CopyID)
		}
		id, err := s.insertBorrow(&Borrow{
			BorrowerID: req.BorrowerID,
			LenderID:   req.LenderID,
			CopyID:     req.CopyID,
			BorrowedAt: lm.now(),
		})
		if err != nil {
			return err
		}
		b, err = s.borrowByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log2.GetLogger(ctx).WithFields(map[string]any{
		"borrow_id":   b.ID,
		"copy_id":     b.CopyID,
		"borrower_id": b.BorrowerID,
		"lender_id":   b.LenderID,
	}).Info("borrow opened")
	return b, nil
}

// ReturnBorrow closes an open borrow and makes its copy available again.
// Returning twice yields ErrConflict.
func (lm *LibraryManager) ReturnBorrow(ctx context.Context, id int64) (*Borrow, error) {
	var b *Borrow
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		if b, err = s.borrowByID(id); err != nil {
			return err
		}
		closed, err := s.closeBorrow(id, lm.now())
		if err != nil {
			return err
		}
		if !closed {
			return conflict("borrow %d was already returned", id)
		}
		if err := s.markCopyAvailable(b.CopyID); err != nil {
			return err
		}
		b, err = s.borrowByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log2.GetLogger(ctx).WithField("borrow_id", id).WithField("copy_id", b.CopyID).Info("borrow returned")
	return b, nil
}

func (lm *LibraryManager) GetBorrow(ctx context.Context, id int64) (*Borrow, error) {
	var b *Borrow
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		b, err = s.borrowByID(id)
		return err
	})
	return b, err
}

// ListBorrows returns one page of borrows, only open ones when openOnly is set.
func (lm *LibraryManager) ListBorrows(ctx context.Context, p Page, openOnly bool) ([]*Borrow, error) {
	var borrows []*Borrow
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		borrows, err = s.borrows(borrowFilter{openOnly: openOnly}, p.normalize())
		return err
	})
	return borrows, err
}

// DeleteBorrow removes a returned borrow. Open borrows must be returned first.
func (lm *LibraryManager) DeleteBorrow(ctx context.Context, id int64) error {
	err := lm.db.WithSession(ctx, func(s *Session) error {
		b, err := s.borrowByID(id)
		if err != nil {
			return err
		}
		if b.Status() == BorrowOpen {
			return conflict("borrow %d is still open", id)
		}
		_, err = s.deleteBorrow(id)
		return err
	})
	if err != nil {
		return err
	}
	log2.GetLogger(ctx).WithField("borrow_id", id).Info("borrow deleted")
	return nil
}
