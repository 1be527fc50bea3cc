package domain

import "time"

// Category is one user-scoped classification target. Hints are human-facing
// merchant-matching aids only; the classifier sees just the name.
type Category struct {
	PK string `bson:"pk" json:"pk"`
	SK string `bson:"sk" json:"sk"`

	Name   string   `bson:"name" json:"name"`
	Active bool     `bson:"active" json:"active"`
	Hints  []string `bson:"hints" json:"hints"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NewCategory builds an active category for a user.
func NewCategory(userID, name string, hints []string, now time.Time) *Category {
	if hints == nil {
		hints = []string{}
	}
	return &Category{
		PK:        UserPK(userID),
		SK:        CategorySK(name),
		Name:      name,
		Active:    true,
		Hints:     hints,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DefaultCategories returns the starter vocabulary seeded for new users.
func DefaultCategories(userID string, now time.Time) []*Category {
	defaults := []struct {
		name  string
		hints []string
	}{
		{"GROCERIES", []string{"SUPERMARKET", "GROCERY", "FOOD LION", "KROGER", "SAFEWAY"}},
		{"DINING", []string{"RESTAURANT", "CAFE", "STARBUCKS", "MCDONALDS", "SUBWAY"}},
		{"SHOPPING", []string{"AMAZON", "WALMART", "TARGET", "BEST BUY", "ONLINE"}},
		{"TRANSPORTATION", []string{"GAS", "UBER", "LYFT", "PARKING", "TOLL"}},
		{"ENTERTAINMENT", []string{"NETFLIX", "SPOTIFY", "MOVIE", "CONCERT", "GAME"}},
		{"UTILITIES", []string{"ELECTRIC", "WATER", "INTERNET", "PHONE", "CABLE"}},
		{"RENT", []string{"RENT", "MORTGAGE", "HOUSING"}},
		{"TRAVEL", []string{"HOTEL", "AIRLINE", "VACATION", "TRIP"}},
		{"HEALTHCARE", []string{"DOCTOR", "PHARMACY", "CVS", "WALGREENS", "HOSPITAL"}},
		{"INCOME", []string{"SALARY", "PAYROLL", "DEPOSIT", "REFUND"}},
		{"TRANSFERS", []string{"TRANSFER", "PAYMENT", "CREDIT"}},
		{CategoryUnassigned, nil},
	}

	out := make([]*Category, 0, len(defaults))
	for _, d := range defaults {
		out = append(out, NewCategory(userID, d.name, d.hints, now))
	}
	return out
}
