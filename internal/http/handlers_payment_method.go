package http

import (
	"net/http"

	"gastapp/internal/core"
)

type paymentMethodRequest struct {
	Name string `json:"name"`
}

type paymentMethodResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Payment methods are global like categories, but user-editable: the
// seeded set covers the common cases and users add their own.
func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.repo.PaymentMethods(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, paymentMethodResponse{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := s.repo.PaymentMethodByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentMethodResponse{ID: m.ID, Name: m.Name})
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := core.PaymentMethod{Name: sanitizeInput(req.Name)}
	if err := m.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.repo.CreatePaymentMethod(r.Context(), m)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentMethodResponse{ID: saved.ID, Name: saved.Name})
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req paymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := core.PaymentMethod{ID: id, Name: sanitizeInput(req.Name)}
	if err := m.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.UpdatePaymentMethod(r.Context(), m); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentMethodResponse{ID: m.ID, Name: m.Name})
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeletePaymentMethod(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
