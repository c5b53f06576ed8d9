package handlers

import (
	"net/http"

	"wathaci/internal/service/profiles"
)

func (a *App) ProfileGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	res, err := a.Profiles.Get(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var in profiles.Input
	if !a.decode(w, r, &in) {
		return
	}
	res, err := a.Profiles.Update(r.Context(), userID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
