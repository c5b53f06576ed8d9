package domain

import "time"

// FundingOpportunity is a grant, loan or competition extracted from a
// crawled source and deduplicated by Hash.
type FundingOpportunity struct {
	ID          string     `json:"id"`
	Hash        string     `json:"-"`
	Title       string     `json:"title"`
	Funder      string     `json:"funder"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Sectors     []string   `json:"sectors"`
	AmountMin   *int64     `json:"amount_min,omitempty"`
	AmountMax   *int64     `json:"amount_max,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	Eligibility string     `json:"eligibility,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Open reports whether the opportunity still accepts applications on now.
func (f FundingOpportunity) Open(now time.Time) bool {
	return f.Deadline == nil || !f.Deadline.Before(truncateDay(now))
}
