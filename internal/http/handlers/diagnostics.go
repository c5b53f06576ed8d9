package handlers

import (
	"net/http"
	"strconv"

	"wathaci/internal/domain"
)

func (a *App) DiagnosticsSubmit(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var answers domain.DiagnosticAnswers
	if !a.decode(w, r, &answers) {
		return
	}
	d, err := a.Diagnostics.Submit(r.Context(), userID, answers)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, d)
}

func (a *App) DiagnosticsHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := a.Diagnostics.History(r.Context(), userID, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Diagnostic{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) DiagnosticsLatest(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	d, err := a.Diagnostics.Latest(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, d)
}
