package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wathaci/internal/service/billing"
)

// LencoSignatureHeader carries the webhook HMAC.
const LencoSignatureHeader = "X-Lenco-Signature"

const maxWebhookBody = 256 << 10

func (a *App) PlansList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Billing.Plans()})
}

func (a *App) SubscriptionCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var in billing.SubscribeInput
	if !a.decode(w, r, &in) {
		return
	}
	checkout, err := a.Billing.Subscribe(r.Context(), userID, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	status := http.StatusAccepted
	if checkout.Payment == nil {
		status = http.StatusCreated
	}
	a.json(w, status, checkout)
}

func (a *App) SubscriptionCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	sub, err := a.Billing.CurrentSubscription(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sub)
}

// PaymentStatus returns the caller's payment, refreshing it from the
// gateway while pending.
func (a *App) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	p, err := a.Billing.Payment(r.Context(), userID, chi.URLParam(r, "reference"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, p)
}

func (a *App) LencoWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	res, err := a.Billing.HandleWebhook(r.Context(), body, r.Header.Get(LencoSignatureHeader))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
