package web

import (
	"net/http"

	"github.com/vbonduro/beautytracker/internal/auth"
)

func (s *Server) handleFindProductImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.Catalog.FindProductImage(r.Context(), q.Get("brand"), q.Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// A miss is a successful lookup with no image.
	ok(w, res)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Catalog.ListCategories(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, cats)
}

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, p)
}
