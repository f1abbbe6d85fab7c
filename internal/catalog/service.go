package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"library/internal/apperr"
)

// Service owns the author and book use cases. It converts repository failures
// into the typed errors the HTTP layer understands.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing authors failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while retrieving the authors", err)
	}
	return authors, nil
}

func (s *Service) FindAuthorByID(ctx context.Context, id int64) (*Author, error) {
	author, err := s.repo.FindAuthorByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Author with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("author_id", id).Msg("finding author failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while retrieving the author", err)
	}
	return author, nil
}

func (s *Service) AddAuthor(ctx context.Context, a *Author) (*Author, error) {
	id, err := s.repo.AddAuthor(ctx, a)
	if err != nil {
		s.log.Error().Err(err).Msg("saving author failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while saving the author", err)
	}
	a.ID = id
	return a, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, id int64, a *Author) (*Author, error) {
	a.ID = id
	if err := s.repo.UpdateAuthor(ctx, a); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Author with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("author_id", id).Msg("updating author failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while updating the author", err)
	}
	return s.FindAuthorByID(ctx, id)
}

func (s *Service) DeleteAuthor(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAuthor(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Author with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("author_id", id).Msg("deleting author failed")
		return apperr.Wrap(apperr.KindDatabase, "An error occurred while deleting the author", err)
	}
	return nil
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing books failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while retrieving the books", err)
	}
	return books, nil
}

func (s *Service) FindBookByID(ctx context.Context, id int64) (*Book, error) {
	book, err := s.repo.FindBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Book with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("book_id", id).Msg("finding book failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while retrieving the book", err)
	}
	return book, nil
}

// AddBook rejects unknown authors before persisting, matching the
// referential-integrity check done at the service level rather than relying
// on the foreign key alone.
func (s *Service) AddBook(ctx context.Context, b *Book) (*Book, error) {
	if _, err := s.FindAuthorByID(ctx, b.AuthorID); err != nil {
		return nil, err
	}
	id, err := s.repo.AddBook(ctx, b)
	if err != nil {
		s.log.Error().Err(err).Msg("saving book failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while saving the book", err)
	}
	return s.FindBookByID(ctx, id)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, b *Book) (*Book, error) {
	if _, err := s.FindBookByID(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.FindAuthorByID(ctx, b.AuthorID); err != nil {
		return nil, err
	}
	b.ID = id
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		s.log.Error().Err(err).Int64("book_id", id).Msg("updating book failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while updating the book", err)
	}
	return s.FindBookByID(ctx, id)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Book with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("book_id", id).Msg("deleting book failed")
		return apperr.Wrap(apperr.KindDatabase, "An error occurred while deleting the book", err)
	}
	return nil
}
