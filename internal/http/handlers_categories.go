package http

import (
	"net/http"

	"bilancio/internal/core"
)

// handleListCategories lists every category, or those of ?type= only.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		NewJSONResponse().Data(s.categories.List()).Write(w)
		return
	}
	kind, err := core.ParseKind(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(s.categories.ListByKind(kind)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := req.toCategory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.categories.Create(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := req.toCategory()
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = id
	updated, err := s.categories.Update(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

// handleDeleteCategory removes a category; records linked to it keep the id
// and render with type defaults.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
