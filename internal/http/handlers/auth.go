package handlers

import (
	"net/http"
	"time"

	"wathaci/internal/domain"
	"wathaci/internal/middleware"
	"wathaci/internal/service/auth"
)

type meResponse struct {
	User               *domain.User               `json:"user"`
	ProfileCompleted   bool                       `json:"profile_completed"`
	MissingFields      []string                   `json:"missing_fields"`
	Plan               domain.PlanCode            `json:"plan"`
	SubscriptionStatus *domain.SubscriptionStatus `json:"subscription_status"`
	PeriodEnd          *time.Time                 `json:"current_period_end,omitempty"`
}

func (a *App) AuthSignup(w http.ResponseWriter, r *http.Request) {
	var in auth.SignupInput
	if !a.decode(w, r, &in) {
		return
	}
	in.Locale = middleware.LocaleFromContext(r.Context())
	in.Country = middleware.CountryFromContext(r.Context())
	session, err := a.Auth.Signup(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, session)
}

func (a *App) AuthSignin(w http.ResponseWriter, r *http.Request) {
	var in auth.SigninInput
	if !a.decode(w, r, &in) {
		return
	}
	session, err := a.Auth.Signin(r.Context(), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

func (a *App) AuthRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	session, err := a.Auth.Refresh(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, session)
}

func (a *App) AuthChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var in auth.PasswordInput
	if !a.decode(w, r, &in) {
		return
	}
	if err := a.Auth.ChangePassword(r.Context(), userID, in); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the account with its onboarding and subscription state.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	user, err := a.Auth.User(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := meResponse{User: user, Plan: user.Plan, MissingFields: []string{}}
	if profile, err := a.Profiles.Get(r.Context(), userID); err == nil {
		resp.ProfileCompleted = profile.Profile.Completed
		if profile.Missing != nil {
			resp.MissingFields = profile.Missing
		}
	} else if !isNotFound(err) {
		a.fail(w, r, err)
		return
	}
	if sub, err := a.Billing.CurrentSubscription(r.Context(), userID); err == nil && sub != nil {
		status := sub.Status
		resp.SubscriptionStatus = &status
		resp.Plan = sub.Plan
		resp.PeriodEnd = sub.CurrentPeriodEnd
	} else if err != nil && !isNotFound(err) {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, resp)
}
