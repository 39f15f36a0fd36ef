package http

import (
	"net/http"
	"strconv"

	"gastapp/internal/core"
)

type tagRequest struct {
	Name string `json:"name"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type attachTagRequest struct {
	TagID int64 `json:"tag_id"`
}

func toTagResponse(t core.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name}
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	tags, err := s.repo.ListTags(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
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

	tag, err := s.repo.GetTag(r.Context(), userID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagResponse(tag))
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag := core.Tag{UserID: userID, Name: sanitizeInput(req.Name)}
	if err := tag.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.repo.CreateTag(r.Context(), tag)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTagResponse(saved))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
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

	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag := core.Tag{ID: id, UserID: userID, Name: sanitizeInput(req.Name)}
	if err := tag.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.repo.UpdateTag(r.Context(), tag); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTagResponse(tag))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
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

	if err := s.repo.DeleteTag(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- expense-tag attachments ----

func (s *Server) handleListExpenseTags(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tags, err := s.repo.TagsForExpense(r.Context(), userID, expenseID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]tagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAttachTag(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req attachTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TagID <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "tag_id is required")
		return
	}

	if err := s.repo.AttachTag(r.Context(), userID, expenseID, req.TagID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetachTag(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expenseID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tagID, err := strconv.ParseInt(r.PathValue("tagID"), 10, 64)
	if err != nil || tagID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid tag id in path")
		return
	}

	if err := s.repo.DetachTag(r.Context(), userID, expenseID, tagID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
