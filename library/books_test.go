package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestCreateBook(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	b, err := lm.CreateBook(ctx, BookInput{
		Title: "The Go Programming Language", Author: "Donovan & Kernighan",
		ISBN: strp("9780134190440"), PublishedYear: intp(2015),
	})
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	require.NotNil(t, b.PublishedYear)
	assert.Equal(t, 2015, *b.PublishedYear)
	assert.Nil(t, b.Publisher)

	_, err = lm.CreateBook(ctx, BookInput{Title: "Other", Author: "X", ISBN: strp("9780134190440")})
	assert.ErrorIs(t, err, ErrConflict)

	// Books without isbn never collide.
	_, err = lm.CreateBook(ctx, BookInput{Title: "A", Author: "X"})
	require.NoError(t, err)
	_, err = lm.CreateBook(ctx, BookInput{Title: "B", Author: "X", ISBN: strp(" ")})
	require.NoError(t, err)
}

func TestCreateBookValidation(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	for name, in := range map[string]BookInput{
		"no title":  {Author: "X"},
		"no author": {Title: "T"},
		"year zero": {Title: "T", Author: "X", PublishedYear: intp(0)},
		"year big":  {Title: "T", Author: "X", PublishedYear: intp(12000)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := lm.CreateBook(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	_, _, err := lm.CreateBookWithCopies(ctx, BookInput{Title: "T", Author: "X"}, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSearchBooks(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	for _, in := range []BookInput{
		{Title: "The Go Programming Language", Author: "Donovan"},
		{Title: "Dom Casmurro", Author: "Machado de Assis"},
		{Title: "100% Pure", Author: "Someone"},
	} {
		_, err := lm.CreateBook(ctx, in)
		require.NoError(t, err)
	}

	res, err := lm.SearchBooks(ctx, "Programming", Page{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "The Go Programming Language", res[0].Title)

	res, err = lm.SearchBooks(ctx, "Machado", Page{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Dom Casmurro", res[0].Title)

	res, err = lm.SearchBooks(ctx, "%", Page{})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "100% Pure", res[0].Title)

	res, err = lm.SearchBooks(ctx, "", Page{})
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestUpdateBook(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	b, err := lm.CreateBook(ctx, BookInput{Title: "T", Author: "A", Publisher: strp("P"), ISBN: strp("111")})
	require.NoError(t, err)
	other, err := lm.CreateBook(ctx, BookInput{Title: "O", Author: "A", ISBN: strp("222")})
	require.NoError(t, err)

	updated, err := lm.UpdateBook(ctx, b.ID, BookUpdate{Title: Set("T2"), Publisher: Null[string]()})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "A", updated.Author)
	assert.Nil(t, updated.Publisher)
	require.NotNil(t, updated.ISBN)
	assert.Equal(t, "111", *updated.ISBN)

	_, err = lm.UpdateBook(ctx, other.ID, BookUpdate{ISBN: Set("111")})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = lm.UpdateBook(ctx, other.ID, BookUpdate{Author: Set("")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = lm.UpdateBook(ctx, 999, BookUpdate{Title: Set("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCopies(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	b, copies, err := lm.CreateBookWithCopies(ctx, BookInput{Title: "T", Author: "A"}, 3)
	require.NoError(t, err)
	require.Len(t, copies, 3)
	for _, c := range copies {
		assert.True(t, c.Available)
		assert.Equal(t, b.ID, c.BookID)
	}

	_, err = lm.AddCopy(ctx, 999, CopyInput{})
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := lm.AddCopy(ctx, b.ID, CopyInput{Code: strp("INV-1")})
	require.NoError(t, err)
	_, err = lm.AddCopy(ctx, b.ID, CopyInput{Code: strp("INV-1")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = lm.UpdateCopy(ctx, copies[0].ID, CopyUpdate{Code: Set("INV-1")})
	assert.ErrorIs(t, err, ErrConflict)
	renamed, err := lm.UpdateCopy(ctx, c.ID, CopyUpdate{Code: Set("INV-2")})
	require.NoError(t, err)
	require.NotNil(t, renamed.Code)
	assert.Equal(t, "INV-2", *renamed.Code)

	all, err := lm.ListCopies(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	_, err = lm.ListCopies(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBookRestrictsOnCopies(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	b, copies, err := lm.CreateBookWithCopies(ctx, BookInput{Title: "T", Author: "A"}, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, lm.DeleteBook(ctx, b.ID), ErrConflict)
	require.NoError(t, lm.DeleteCopy(ctx, copies[0].ID))
	require.NoError(t, lm.DeleteBook(ctx, b.ID))

	assert.ErrorIs(t, lm.DeleteBook(ctx, b.ID), ErrNotFound)
	assert.ErrorIs(t, lm.DeleteCopy(ctx, copies[0].ID), ErrNotFound)
}
