// Package httpapi exposes the catalog CRUD and checkout endpoints.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"library/internal/catalog"
	"library/internal/checkout"
)

type Server struct {
	catalog  *catalog.Service
	checkout *checkout.Service
	maxQty   int
	log      zerolog.Logger
}

func NewServer(cat *catalog.Service, chk *checkout.Service, maxQty int, log zerolog.Logger) *Server {
	return &Server{catalog: cat, checkout: chk, maxQty: maxQty, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(correlationID(s.log))
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/authors", func(r chi.Router) {
			r.Get("/", s.listAuthors)
			r.Post("/", s.createAuthor)
			r.Get("/{id}", s.getAuthor)
			r.Put("/{id}", s.updateAuthor)
			r.Delete("/{id}", s.deleteAuthor)
		})
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.listBooks)
			r.Post("/", s.createBook)
			r.Get("/{id}", s.getBook)
			r.Put("/{id}", s.updateBook)
			r.Delete("/{id}", s.deleteBook)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", s.createOrder)
			r.Get("/{id}", s.getOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	})

	return cors.Default().Handler(r)
}
