package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	notifdomain "github.com/enayetsyl/gtc-deploy-sub000/internal/notification/domain"
)

const defaultNotificationLimit = 50

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationResponse(n *notifdomain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Subject:   n.Subject,
		Content:   n.Content,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (s *Server) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	list, err := s.notifRepo.ListForUser(r.Context(), actor.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	unread, err := s.notifRepo.CountUnread(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, toNotificationResponse(n))
	}
	writeJSON(w, http.StatusOK, struct {
		Items  []notificationResponse `json:"items"`
		Unread int                    `json:"unread"`
	}{Items: items, Unread: unread})
}

func (s *Server) handleNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := s.notifications.MarkRead(r.Context(), actor.ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams the user's realtime events as server-sent events until
// the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming unsupported"})
		return
	}
	actor := actorFrom(r)
	events := s.hub.Subscribe(r.Context(), actor.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload)
		flusher.Flush()
	}
}
