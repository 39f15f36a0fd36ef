package http

import (
	"net/http"

	"gastapp/internal/core"
)

type reminderRequest struct {
	ExpenseID int64  `json:"expense_id"`
	RemindOn  string `json:"remind_on"`
	Notified  bool   `json:"notified,omitempty"`
}

type reminderResponse struct {
	ID        int64  `json:"id"`
	ExpenseID int64  `json:"expense_id"`
	RemindOn  string `json:"remind_on"`
	Notified  bool   `json:"notified"`
}

func toReminderResponse(rem core.Reminder) reminderResponse {
	return reminderResponse{
		ID:        rem.ID,
		ExpenseID: rem.ExpenseID,
		RemindOn:  formatDate(rem.RemindOn),
		Notified:  rem.Notified,
	}
}

func toReminder(req reminderRequest) (core.Reminder, error) {
	remindOn, err := parseDate(req.RemindOn)
	if err != nil {
		return core.Reminder{}, core.ErrInvalidDate
	}
	rem := core.Reminder{
		ExpenseID: req.ExpenseID,
		RemindOn:  remindOn,
		Notified:  req.Notified,
	}
	return rem, rem.Validate()
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	reminders, err := s.repo.ListReminders(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, toReminderResponse(rem))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rem, err := s.repo.GetReminder(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req reminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rem, err := toReminder(req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.repo.CreateReminder(r.Context(), userID, rem)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderResponse(saved))
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req reminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// The reminder keeps its expense; only the date and notified flag
	// are editable.
	current, err := s.repo.GetReminder(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.ExpenseID = current.ExpenseID

	rem, err := toReminder(req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rem.ID = id

	if err := s.repo.UpdateReminder(r.Context(), userID, rem); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteReminder(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
