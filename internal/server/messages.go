package server

import (
	"encoding/json"
	"io"
	"net/http"

	"farmlink/internal/app"
	"farmlink/pkg/domain"
)

type messageRequest struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listMessages(w, r)
	case http.MethodPost:
		s.authenticated(s.sendMessage).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	messages, err := s.app.ListMessagesBetween(q.Get("userId1"), q.Get("userId2"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request, actor domain.User) {
	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	message, err := s.app.SendMessage(r.Context(), actor, app.MessageParams{
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Text:        req.Text,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathTail(r.URL.Path, "/api/messages/conversations/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	contacts, err := s.app.ListContacts(id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []string{}
	}
	writeJSON(w, http.StatusOK, contacts)
}
