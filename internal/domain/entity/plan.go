package entity

// Plan is a purchasable catalog entry. Amount is in minor units.
type Plan struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Amount   int64    `json:"amount" yaml:"amount"`
	Currency string   `json:"currency" yaml:"currency"`
	Interval Interval `json:"interval" yaml:"interval"`
}

// FreePlanID marks an account without a paid subscription.
const FreePlanID = "free"
