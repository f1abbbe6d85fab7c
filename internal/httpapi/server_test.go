package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/catalog"
	"library/internal/checkout"
	"library/internal/events"
	"library/internal/sqlitedb"
)

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.published = append(p.published, key)
	return nil
}

type testEnv struct {
	handler   http.Handler
	publisher *recordingPublisher
	projector *checkout.Projector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, catalog.Migrate(db))
	require.NoError(t, checkout.Migrate(db))

	pub := &recordingPublisher{}
	catalogRepo := catalog.NewSQLiteRepo(db)
	catalogSvc := catalog.NewService(catalogRepo, zerolog.Nop())
	checkoutSvc := checkout.NewService(checkout.NewSQLiteRepo(db), catalogRepo, pub, zerolog.Nop())

	server := NewServer(catalogSvc, checkoutSvc, 50, zerolog.Nop())
	return &testEnv{
		handler:   server.Router(),
		publisher: pub,
		projector: checkout.NewProjector(checkoutSvc, zerolog.Nop()),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func decodeErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error.Message
}

// seedBook creates an author and a book through the API and returns the book id.
func (e *testEnv) seedBook(t *testing.T, title string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/authors", map[string]any{"name": "Ursula K. Le Guin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	author := decodeData[authorResponse](t, rec)

	rec = e.do(t, http.MethodPost, "/api/books", map[string]any{"title": title, "author_id": author.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeData[bookResponse](t, rec).ID
}

func (e *testEnv) project(t *testing.T, routingKey string, evt any) {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	require.NoError(t, e.projector.Handle(context.Background(), routingKey, body))
}

func TestCheckoutPlacesOrder(t *testing.T) {
	env := newTestEnv(t)
	bookID := env.seedBook(t, "A Wizard of Earthsea")

	rec := env.do(t, http.MethodPost, "/api/checkout", map[string]any{
		"items": []map[string]any{{"book_id": bookID, "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	order := decodeData[orderResponse](t, rec)
	assert.Positive(t, order.ID)
	assert.Equal(t, "Order Placed", order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, bookID, order.Items[0].BookID)
	assert.Equal(t, "A Wizard of Earthsea", order.Items[0].Title)
	assert.Equal(t, 1, order.Items[0].Quantity)

	assert.Equal(t, []string{events.RKOrderPlaced}, env.publisher.published)
}

func TestCheckoutEmptyItems(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/checkout", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Book order must have at least one item", decodeErrorMessage(t, rec))
	assert.Empty(t, env.publisher.published)
}

func TestCheckoutUnknownBook(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/checkout", map[string]any{
		"items": []map[string]any{{"book_id": 41, "quantity": 1}},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Book with id 41 was not found", decodeErrorMessage(t, rec))
	assert.Empty(t, env.publisher.published)
}

func TestCheckoutQuantityOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	bookID := env.seedBook(t, "The Dispossessed")

	for _, qty := range []int{0, 51} {
		rec := env.do(t, http.MethodPost, "/api/checkout", map[string]any{
			"items": []map[string]any{{"book_id": bookID, "quantity": qty}},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, "quantity %d", qty)

		var env400 struct {
			Errors map[string][]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env400))
		assert.Contains(t, env400.Errors, "items[0].quantity")
	}
	assert.Empty(t, env.publisher.published)
}

func TestCheckoutGetUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/checkout/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Book order with id 999 was not found", decodeErrorMessage(t, rec))
}

// Place an order, feed stage confirmations through the projector and watch
// the observable status advance (and regress, per current semantics).
func TestCheckoutStatusProjection(t *testing.T) {
	env := newTestEnv(t)
	bookID := env.seedBook(t, "The Left Hand of Darkness")

	rec := env.do(t, http.MethodPost, "/api/checkout", map[string]any{
		"items": []map[string]any{{"book_id": bookID, "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	orderID := decodeData[orderResponse](t, rec).ID

	getStatus := func() string {
		rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/checkout/%d", orderID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeData[orderResponse](t, rec).Status
	}

	env.project(t, events.RKPaymentConfirmed, events.PaymentConfirmedEvent{OrderID: orderID, ConfirmedAt: time.Now()})
	assert.Equal(t, "Payment Confirmed", getStatus())

	env.project(t, events.RKOrderShipped, events.OrderShippedEvent{OrderID: orderID, ShippedAt: time.Now()})
	assert.Equal(t, "Order Shipped", getStatus())

	// Redelivered duplicate of the earlier event: status regresses.
	env.project(t, events.RKPaymentConfirmed, events.PaymentConfirmedEvent{OrderID: orderID, ConfirmedAt: time.Now()})
	assert.Equal(t, "Payment Confirmed", getStatus())

	env.project(t, events.RKOrderCompleted, events.OrderCompletedEvent{OrderID: orderID, CompletedAt: time.Now()})
	assert.Equal(t, "Order Completed", getStatus())
}

func TestAuthorValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/authors", map[string]any{
		"name":       "",
		"birth_date": time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env400 struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env400))
	assert.Contains(t, env400.Errors, "name")
	require.Contains(t, env400.Errors, "birth_date")
	assert.Equal(t, "The birth_date cannot be in the future.", env400.Errors["birth_date"][0])
}

func TestBookRequiresKnownAuthor(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/books", map[string]any{"title": "Nobody Wrote This", "author_id": 5})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Author with id 5 was not found", decodeErrorMessage(t, rec))
}

func TestCorrelationIDEchoed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("X-Correlation-Id", "abc-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-Id"))
}
