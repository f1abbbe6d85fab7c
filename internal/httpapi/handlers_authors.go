package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) listAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.catalog.ListAuthors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]authorResponse, 0, len(authors))
	for i := range authors {
		out = append(out, toAuthorResponse(&authors[i], false))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) getAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	author, err := s.catalog.FindAuthorByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toAuthorResponse(author, true))
}

func (s *Server) createAuthor(w http.ResponseWriter, r *http.Request) {
	var req saveAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	author, fieldErrs := req.validate()
	if fieldErrs != nil {
		writeValidationErrors(w, fieldErrs)
		return
	}
	created, err := s.catalog.AddAuthor(r.Context(), author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toAuthorResponse(created, false))
}

func (s *Server) updateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req saveAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	author, fieldErrs := req.validate()
	if fieldErrs != nil {
		writeValidationErrors(w, fieldErrs)
		return
	}
	updated, err := s.catalog.UpdateAuthor(r.Context(), id, author)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toAuthorResponse(updated, true))
}

func (s *Server) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.DeleteAuthor(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"id": id})
}

// pathID parses the {id} route parameter; on failure it writes a 400 and
// reports false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "The id must be a positive integer")
		return 0, false
	}
	return id, true
}
