package httpapi

import (
	"encoding/json"
	"net/http"
)

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.ListBooks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]bookResponse, 0, len(books))
	for i := range books {
		out = append(out, toBookResponse(&books[i]))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	book, err := s.catalog.FindBookByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toBookResponse(book))
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var req saveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	book, fieldErrs := req.validate()
	if fieldErrs != nil {
		writeValidationErrors(w, fieldErrs)
		return
	}
	created, err := s.catalog.AddBook(r.Context(), book)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toBookResponse(created))
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req saveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	book, fieldErrs := req.validate()
	if fieldErrs != nil {
		writeValidationErrors(w, fieldErrs)
		return
	}
	updated, err := s.catalog.UpdateBook(r.Context(), id, book)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toBookResponse(updated))
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.DeleteBook(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"id": id})
}
