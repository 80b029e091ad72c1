package model

import "time"

type Category string

const (
	CategoryFood         Category = "Food"
	CategoryBeverage     Category = "Beverage"
	CategoryCleaning     Category = "Cleaning"
	CategoryPersonalCare Category = "Personal Care"
	CategoryElectronics  Category = "Electronics"
	CategoryClothing     Category = "Clothing"
	CategoryOther        Category = "Other"
	CategoryBabyKids     Category = "Baby & Kids"
	CategoryPet          Category = "Pet"
	// CategoryUnknown is used for barcode-sourced products.
	CategoryUnknown Category = "Unknown"
)

// Categories is the user-selectable set, in picker order.
var Categories = []Category{
	CategoryFood, CategoryBeverage, CategoryCleaning, CategoryPersonalCare,
	CategoryElectronics, CategoryClothing, CategoryOther, CategoryBabyKids, CategoryPet,
}

// ParseCategory accepts any known category label, including "Unknown".
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c == CategoryUnknown {
		return c, true
	}
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority accepts "High", "Medium" or "Low". An empty string yields the
// default, Medium.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case "":
		return PriorityMedium, true
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), true
	}
	return "", false
}

// SortLabel is the label used when ordering by priority. A missing priority
// sorts as Low but is never persisted that way.
func (p Priority) SortLabel() string {
	if p == "" {
		return string(PriorityLow)
	}
	return string(p)
}

type Product struct {
	ID          string    `json:"id"`
	ListID      string    `json:"list_id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Priority    Priority  `json:"priority"`
	IsPurchased bool      `json:"is_purchased"`
	CreatedAt   time.Time `json:"created_at"`
}

type SortOption string

const (
	SortAlphabetical      SortOption = "alphabetical"
	SortPriorityLowToHigh SortOption = "priority_low_to_high"
	SortPriorityHighToLow SortOption = "priority_high_to_low"
)

// ParseSortOption defaults to alphabetical when s is empty.
func ParseSortOption(s string) (SortOption, bool) {
	switch SortOption(s) {
	case "":
		return SortAlphabetical, true
	case SortAlphabetical, SortPriorityLowToHigh, SortPriorityHighToLow:
		return SortOption(s), true
	}
	return "", false
}
