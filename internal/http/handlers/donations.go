package handlers

import (
	"net/http"
	"strconv"
	"time"

	"wathaci/internal/domain"
	"wathaci/internal/service/billing"
)

type testimonialDTO struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id"`
	DonorName   string    `json:"donor_name"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Message     string    `json:"message"`
	Campaign    string    `json:"campaign,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DonationsCreate accepts signed in and anonymous donors.
func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var in billing.DonateInput
	if !a.decode(w, r, &in) {
		return
	}
	checkout, err := a.Billing.Donate(r.Context(), a.optionalUserID(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, checkout)
}

func (a *App) DonationsTestimonials(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	donations, err := a.Billing.Testimonials(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]testimonialDTO, 0, len(donations))
	for _, d := range donations {
		items = append(items, testimonial(d))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) DonationsStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Billing.DonationStats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, stats)
}

func testimonial(d domain.Donation) testimonialDTO {
	out := testimonialDTO{
		ID:          d.ID,
		UserID:      d.UserID,
		DonorName:   d.DonorName,
		AmountMinor: d.AmountMinor,
		Currency:    d.Currency,
		Message:     d.Message,
		Campaign:    d.Campaign,
		CreatedAt:   d.CreatedAt,
	}
	if d.Anonymous {
		out.UserID = nil
		out.DonorName = "Anonymous"
	} else if out.DonorName == "" {
		out.DonorName = "A supporter"
	}
	return out
}
