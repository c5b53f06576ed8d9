package domain

// PlatformStats is the operator dashboard summary.
type PlatformStats struct {
	UsersByAccountType  map[string]int64 `json:"users_by_account_type"`
	TotalUsers          int64            `json:"total_users"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	RevenueMinor        int64            `json:"revenue_minor"`
	DonationsMinor      int64            `json:"donations_minor"`
	FundingOpen         int64            `json:"funding_open"`
	NotificationsQueued int64            `json:"notifications_queued"`
}
