package library

import (
	"context"
	"strings"

	log2 "library-backend/log"
)

const maxPublishedYear = 9999

// BookInput is the payload of CreateBook.
type BookInput struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          *string `json:"isbn"`
	Publisher     *string `json:"publisher"`
	PublishedYear *int    `json:"published_year"`
}

// BookUpdate is a partial update of a book.
type BookUpdate struct {
	Title         Optional[string] `json:"title"`
	Author        Optional[string] `json:"author"`
	ISBN          Optional[string] `json:"isbn"`
	Publisher     Optional[string] `json:"publisher"`
	PublishedYear Optional[int]    `json:"published_year"`
}

// CopyInput is the payload of AddCopy.
type CopyInput struct {
	Code *string `json:"code"`
}

// CopyUpdate changes the inventory code of a copy. Availability is owned by
// the borrow lifecycle and cannot be set directly.
type CopyUpdate struct {
	Code Optional[string] `json:"code"`
}

func validateBook(b *Book) error {
	if b.Title == "" {
		return validationError("title is required")
	}
	if b.Author == "" {
		return validationError("author is required")
	}
	if y := b.PublishedYear; y != nil && (*y <= 0 || *y > maxPublishedYear) {
		return validationError("invalid published_year %d", *y)
	}
	return nil
}

// ----- Books -----

func (lm *LibraryManager) ListBooks(ctx context.Context, p Page) ([]*Book, error) {
	var books []*Book
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		books, err = s.books(p.normalize())
		return err
	})
	return books, err
}

// SearchBooks returns books whose title or author contains q. A blank q lists
// every book.
func (lm *LibraryManager) SearchBooks(ctx context.Context, q string, p Page) ([]*Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return lm.ListBooks(ctx, p)
	}
	var books []*Book
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		books, err = s.searchBooks(q, p.normalize())
		return err
	})
	return books, err
}

func (lm *LibraryManager) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b *Book
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		b, err = s.bookByID(id)
		return err
	})
	return b, err
}

func (lm *LibraryManager) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	b, _, err := lm.CreateBookWithCopies(ctx, in, 0)
	return b, err
}

// CreateBookWithCopies stores a book and n code-less copies of it in one unit
// of work.
func (lm *LibraryManager) CreateBookWithCopies(ctx context.Context, in BookInput, n int) (*Book, []*BookCopy, error) {
	b := &Book{
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		ISBN:          trimmed(in.ISBN),
		Publisher:     trimmed(in.Publisher),
		PublishedYear: in.PublishedYear,
	}
	if err := validateBook(b); err != nil {
		return nil, nil, err
	}
	if n < 0 {
		return nil, nil, validationError("copies must not be negative")
	}

	var copies []*BookCopy
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if b.ISBN != nil {
			taken, err := s.isbnTaken(*b.ISBN, 0)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a book with isbn %s already exists", *b.ISBN)
			}
		}
		b.CreatedAt = lm.now()
		id, err := s.insertBook(b)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if _, err := s.insertCopy(&BookCopy{BookID: id, CreatedAt: b.CreatedAt}); err != nil {
				return err
			}
		}
		if b, err = s.bookByID(id); err != nil {
			return err
		}
		copies, err = s.copiesOf(id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	log2.GetLogger(ctx).WithField("book_id", b.ID).WithField("copies", n).Info("book created")
	return b, copies, nil
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id int64, u BookUpdate) (*Book, error) {
	var b *Book
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		if b, err = s.bookByID(id); err != nil {
			return err
		}
		if u.Title.Present() {
			title, _ := u.Title.Get()
			b.Title = strings.TrimSpace(title)
		}
		if u.Author.Present() {
			author, _ := u.Author.Get()
			b.Author = strings.TrimSpace(author)
		}
		applyString(&b.ISBN, u.ISBN)
		applyString(&b.Publisher, u.Publisher)
		if u.PublishedYear.Present() {
			b.PublishedYear = u.PublishedYear.Ptr()
		}
		if err := validateBook(b); err != nil {
			return err
		}

		if u.ISBN.Present() && b.ISBN != nil {
			taken, err := s.isbnTaken(*b.ISBN, id)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a book with isbn %s already exists", *b.ISBN)
			}
		}
		if err := s.updateBook(b); err != nil {
			return err
		}
		b, err = s.bookByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBook removes a book that has no copies left.
func (lm *LibraryManager) DeleteBook(ctx context.Context, id int64) error {
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.bookByID(id); err != nil {
			return err
		}
		hasCopies, err := s.bookHasCopies(id)
		if err != nil {
			return err
		}
		if hasCopies {
			return conflict("book %d still has copies", id)
		}
		_, err = s.deleteBook(id)
		return err
	})
	if err != nil {
		return err
	}
	log2.GetLogger(ctx).WithField("book_id", id).Info("book deleted")
	return nil
}

// ----- Copies -----

// ListCopies returns every copy of book bookID.
func (lm *LibraryManager) ListCopies(ctx context.Context, bookID int64) ([]*BookCopy, error) {
	var copies []*BookCopy
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.bookByID(bookID); err != nil {
			return err
		}
		var err error
		copies, err = s.copiesOf(bookID)
		return err
	})
	return copies, err
}

func (lm *LibraryManager) GetCopy(ctx context.Context, id int64) (*BookCopy, error) {
	var c *BookCopy
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		c, err = s.copyByID(id)
		return err
	})
	return c, err
}

// AddCopy registers a new, available copy of book bookID.
func (lm *LibraryManager) AddCopy(ctx context.Context, bookID int64, in CopyInput) (*BookCopy, error) {
	c := &BookCopy{BookID: bookID, Code: trimmed(in.Code), Available: true}
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.bookByID(bookID); err != nil {
			return err
		}
		if c.Code != nil {
			taken, err := s.codeTaken(*c.Code, 0)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a copy with code %s already exists", *c.Code)
			}
		}
		c.CreatedAt = lm.now()
		id, err := s.insertCopy(c)
		if err != nil {
			return err
		}
		c, err = s.copyByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	log2.GetLogger(ctx).WithField("book_id", bookID).WithField("copy_id", c.ID).Info("copy added")
	return c, nil
}

func (lm *LibraryManager) UpdateCopy(ctx context.Context, id int64, u CopyUpdate) (*BookCopy, error) {
	var c *BookCopy
	err := lm.db.WithSession(ctx, func(s *Session) (err error) {
		if c, err = s.copyByID(id); err != nil {
			return err
		}
		if !u.Code.Present() {
			return nil
		}
		applyString(&c.Code, u.Code)
		if c.Code != nil {
			taken, err := s.codeTaken(*c.Code, id)
			if err != nil {
				return err
			}
			if taken {
				return conflict("a copy with code %s already exists", *c.Code)
			}
		}
		if err := s.updateCopyCode(id, c.Code); err != nil {
			return err
		}
		c, err = s.copyByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCopy removes a copy that was never lent.
func (lm *LibraryManager) DeleteCopy(ctx context.Context, id int64) error {
	err := lm.db.WithSession(ctx, func(s *Session) error {
		if _, err := s.copyByID(id); err != nil {
			return err
		}
		lent, err := s.copyHasBorrows(id)
		if err != nil {
			return err
		}
		if lent {
			return conflict("copy %d has borrow history", id)
		}
		_, err = s.deleteCopy(id)
		return err
	})
	if err != nil {
		return err
	}
	log2.GetLogger(ctx).WithField("copy_id", id).Info("copy deleted")
	return nil
}
