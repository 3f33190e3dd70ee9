package engine

import "github.com/bloomhaus/mailflow/internal/model"

// matchesSegment reports whether the customer satisfies the automation's
// targeting conditions. All present sub-conditions are ANDed; a nil
// condition set matches everyone.
func matchesSegment(c model.CustomerSnapshot, cond *model.SegmentConditions) bool {
	if cond == nil {
		return true
	}
	if cond.MinOrderValue > 0 && c.TotalSpent < cond.MinOrderValue {
		return false
	}
	if cond.MinOrderCount > 0 && c.OrderCount < cond.MinOrderCount {
		return false
	}
	if cond.PremiumTier && c.QualityScore < 4 {
		return false
	}
	if len(cond.PreferredCategories) > 0 && !intersects(cond.PreferredCategories, c.PreferredCategories) {
		return false
	}
	return true
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
