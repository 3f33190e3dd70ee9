package model

// CustomerSnapshot is the customer state captured at schedule time. The email
// address is the identity key; the rest is segmentation input and template
// material, embedded into the tracking record's metadata.
type CustomerSnapshot struct {
	Email               string   `json:"email"`
	Name                string   `json:"name"`
	TotalSpent          float64  `json:"total_spent"`
	OrderCount          int      `json:"order_count"`
	QualityScore        float64  `json:"quality_score"` // 0-5
	PreferredCategories []string `json:"preferred_categories,omitempty"`
}
