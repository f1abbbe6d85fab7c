package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"library/internal/apperr"
	"library/internal/catalog"
	"library/internal/events"
	"library/internal/rabbit"
)

// BookCatalog is the catalog collaborator consumed at order-creation time.
type BookCatalog interface {
	FindBookByID(ctx context.Context, id int64) (*catalog.Book, error)
}

// Service originates the fulfillment pipeline: it validates and persists new
// orders and publishes the initial OrderPlaced event. Status mutations after
// creation belong to the Projector.
type Service struct {
	repo      Repository
	books     BookCatalog
	publisher rabbit.Publisher
	log       zerolog.Logger
}

func NewService(repo Repository, books BookCatalog, publisher rabbit.Publisher, log zerolog.Logger) *Service {
	return &Service{repo: repo, books: books, publisher: publisher, log: log}
}

// PlaceOrder validates the candidate, persists it with status Placed, re-reads
// the hydrated aggregate and publishes OrderPlaced. The write happens before
// the publish: a publish failure reports MessageBrokerError but the persisted
// order is kept (no compensating rollback).
func (s *Service) PlaceOrder(ctx context.Context, candidate *Order) (*Order, error) {
	if len(candidate.Items) == 0 {
		return nil, apperr.Validation("Book order must have at least one item")
	}
	for _, it := range candidate.Items {
		if _, err := s.books.FindBookByID(ctx, it.BookID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) || apperr.KindOf(err) == apperr.KindNotFound {
				return nil, apperr.NotFound("Book with id %d was not found", it.BookID)
			}
			s.log.Error().Err(err).Int64("book_id", it.BookID).Msg("resolving book failed")
			return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while saving the book order", err)
		}
	}

	candidate.Status = StatusPlaced
	candidate.CheckoutDate = time.Now().UTC()

	id, err := s.repo.CreateOrder(ctx, candidate)
	if err != nil {
		s.log.Error().Err(err).Msg("creating book order failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while saving the book order", err)
	}

	// Re-read with relations hydrated so the event carries the full snapshot.
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("order_id", id).Msg("reloading book order failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while saving the book order", err)
	}

	evt := events.OrderPlacedEvent{
		OrderID:      order.ID,
		CheckoutDate: order.CheckoutDate,
		Status:       order.Status.Label(),
		Items:        make([]events.OrderPlacedItem, 0, len(order.Items)),
	}
	for _, it := range order.Items {
		evt.Items = append(evt.Items, events.OrderPlacedItem{BookID: it.BookID, Quantity: it.Quantity})
	}

	if err := s.publisher.Publish(ctx, events.RKOrderPlaced, evt); err != nil {
		s.log.Error().Err(err).Int64("order_id", order.ID).Msg("publishing order placed event failed")
		return nil, apperr.Wrap(apperr.KindMessageBroker, "An error occurred while publishing the order event", err)
	}

	s.log.Info().Int64("order_id", order.ID).Msg("order placed")
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("Book order with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("order_id", id).Msg("finding book order failed")
		return nil, apperr.Wrap(apperr.KindDatabase, "An error occurred while retrieving the book order", err)
	}
	return order, nil
}

// UpdateStatus overwrites the order's status with whatever the incoming event
// implies. There is deliberately no transition guard here: duplicates and
// out-of-order deliveries apply last-write-wins.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Book order with id %d was not found", id)
		}
		s.log.Error().Err(err).Int64("order_id", id).Msg("updating book order status failed")
		return apperr.Wrap(apperr.KindDatabase, "An error occurred while updating the book order status", err)
	}
	s.log.Info().Int64("order_id", id).Str("status", status.Label()).Msg("order status updated")
	return nil
}
