package model

import "time"

// AutomationType identifies a category of triggered email.
type AutomationType string

const (
	TypeWelcome           AutomationType = "welcome"
	TypeAbandonedCart1    AutomationType = "abandoned_cart_1"
	TypeAbandonedCart2    AutomationType = "abandoned_cart_2"
	TypeOrderConfirmation AutomationType = "order_confirmation"
	TypeCareGuide         AutomationType = "care_guide"
	TypeReviewRequest     AutomationType = "review_request"
	TypeReengagement      AutomationType = "reengagement"
)

// SegmentConditions gates an automation on customer attributes. All present
// conditions must hold for the customer to qualify.
type SegmentConditions struct {
	MinOrderValue       float64  // requires TotalSpent >= value
	MinOrderCount       int      // requires OrderCount >= value
	PremiumTier         bool     // requires QualityScore >= 4
	PreferredCategories []string // requires a non-empty intersection
}

// AutomationConfig is the static policy for one automation type. Loaded at
// startup and never mutated afterwards.
type AutomationConfig struct {
	Type         AutomationType
	Enabled      bool
	Delay        time.Duration // trigger to first send attempt
	MaxAttempts  int
	FrequencyCap time.Duration // minimum gap between sends per customer; 0 = uncapped
	Segment      *SegmentConditions
}

// DefaultAutomations returns the built-in automation catalog.
func DefaultAutomations() map[AutomationType]AutomationConfig {
	return map[AutomationType]AutomationConfig{
		TypeWelcome: {
			Type:         TypeWelcome,
			Enabled:      true,
			Delay:        0,
			MaxAttempts:  3,
			FrequencyCap: 0, // a customer only signs up once
		},
		TypeAbandonedCart1: {
			Type:         TypeAbandonedCart1,
			Enabled:      true,
			Delay:        1 * time.Hour,
			MaxAttempts:  3,
			FrequencyCap: 24 * time.Hour,
		},
		TypeAbandonedCart2: {
			Type:         TypeAbandonedCart2,
			Enabled:      true,
			Delay:        24 * time.Hour,
			MaxAttempts:  3,
			FrequencyCap: 72 * time.Hour,
		},
		TypeOrderConfirmation: {
			Type:        TypeOrderConfirmation,
			Enabled:     true,
			Delay:       0,
			MaxAttempts: 5,
			// no cap; every order gets a confirmation
		},
		TypeCareGuide: {
			Type:         TypeCareGuide,
			Enabled:      true,
			Delay:        48 * time.Hour,
			MaxAttempts:  3,
			FrequencyCap: 7 * 24 * time.Hour,
		},
		TypeReviewRequest: {
			Type:         TypeReviewRequest,
			Enabled:      true,
			Delay:        7 * 24 * time.Hour,
			MaxAttempts:  3,
			FrequencyCap: 14 * 24 * time.Hour,
			Segment:      &SegmentConditions{MinOrderCount: 1},
		},
		TypeReengagement: {
			Type:         TypeReengagement,
			Enabled:      true,
			Delay:        0,
			MaxAttempts:  3,
			FrequencyCap: 30 * 24 * time.Hour,
			Segment:      &SegmentConditions{MinOrderValue: 25},
		},
	}
}
