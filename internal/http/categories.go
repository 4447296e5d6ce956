package httpapi

import "net/http"

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Store.ListCategories()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, categories)
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.Stats()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
