package enums

import "fmt"

// InventoryStatus is the physical state of a single inventory unit.
type InventoryStatus string

const (
	InventoryStatusAvailable   InventoryStatus = "available"
	InventoryStatusRented      InventoryStatus = "rented"
	InventoryStatusMaintenance InventoryStatus = "maintenance"
	InventoryStatusRetired     InventoryStatus = "retired"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusAvailable,
	InventoryStatusRented,
	InventoryStatusMaintenance,
	InventoryStatusRetired,
}

// String implements fmt.Stringer.
func (s InventoryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InventoryStatus.
func (s InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}

// ItemCondition grades the wear of an inventory unit. Higher rank is better.
type ItemCondition string

const (
	ItemConditionNew       ItemCondition = "new"
	ItemConditionExcellent ItemCondition = "excellent"
	ItemConditionGood      ItemCondition = "good"
	ItemConditionFair      ItemCondition = "fair"
	ItemConditionPoor      ItemCondition = "poor"
)

var conditionRank = map[ItemCondition]int{
	ItemConditionNew:       5,
	ItemConditionExcellent: 4,
	ItemConditionGood:      3,
	ItemConditionFair:      2,
	ItemConditionPoor:      1,
}

// String implements fmt.Stringer.
func (c ItemCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ItemCondition.
func (c ItemCondition) IsValid() bool {
	_, ok := conditionRank[c]
	return ok
}

// Rank orders conditions from poor (1) to new (5); unknown values rank 0.
func (c ItemCondition) Rank() int {
	return conditionRank[c]
}

// ParseItemCondition converts raw input into an ItemCondition.
func ParseItemCondition(value string) (ItemCondition, error) {
	c := ItemCondition(value)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid item condition %q", value)
	}
	return c, nil
}

// ConditionRankSQL orders rows by condition, best first, on any SQL dialect.
const ConditionRankSQL = "CASE condition WHEN 'new' THEN 5 WHEN 'excellent' THEN 4 WHEN 'good' THEN 3 WHEN 'fair' THEN 2 WHEN 'poor' THEN 1 ELSE 0 END"
