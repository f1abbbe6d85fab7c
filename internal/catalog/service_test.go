package catalog

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/apperr"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestRepo(t), zerolog.Nop())
}

func TestServiceFindAuthorNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.FindAuthorByID(context.Background(), 77)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Author with id 77 was not found", apperr.MessageOf(err))
}

func TestServiceAddBookRequiresExistingAuthor(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddBook(context.Background(), &Book{Title: "Orphan", AuthorID: 12})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Author with id 12 was not found", apperr.MessageOf(err))
}

func TestServiceAddBookReturnsHydratedBook(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author, err := svc.AddAuthor(ctx, &Author{Name: "Rob Pike"})
	require.NoError(t, err)

	book, err := svc.AddBook(ctx, &Book{Title: "The Unix Programming Environment", AuthorID: author.ID})
	require.NoError(t, err)
	assert.Positive(t, book.ID)
	assert.Equal(t, "Rob Pike", book.AuthorName)
}

func TestServiceUpdateBookValidatesNewAuthor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	author, err := svc.AddAuthor(ctx, &Author{Name: "Ken Thompson"})
	require.NoError(t, err)
	book, err := svc.AddBook(ctx, &Book{Title: "Reflections on Trusting Trust", AuthorID: author.ID})
	require.NoError(t, err)

	_, err = svc.UpdateBook(ctx, book.ID, &Book{Title: "retitled", AuthorID: 999})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Author with id 999 was not found", apperr.MessageOf(err))
}

func TestServiceDeleteBookNotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.DeleteBook(context.Background(), 31)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Book with id 31 was not found", apperr.MessageOf(err))
}
