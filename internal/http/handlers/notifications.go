package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wathaci/internal/domain"
)

const maxNotificationPage = 100

func (a *App) NotificationsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxNotificationPage {
		limit = 50
	}
	items, err := a.Notifications.ListForUser(r.Context(), userID, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Notification{}
	}
	unread := 0
	for _, n := range items {
		if n.ReadAt == nil {
			unread++
		}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items, "unread": unread})
}

func (a *App) NotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.Notifications.MarkRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) NotificationsReadAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	n, err := a.Notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"updated": n})
}
