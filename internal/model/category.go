package model

// Known categories produced by the classifier. The classifier may return
// other labels; those are stored verbatim and treated as unknown.
const (
	CategoryQuoteRequest     = "Quote Request"
	CategoryNewOrderReceived = "New Order Received"
	CategoryDeliveryFollowUp = "Delivery Follow-up"
	CategoryOther            = "Other"
	CategoryError            = "Error"
)

const defaultCategoryEmoji = "📄"

// Categories lists the labels the classifier is asked to choose from.
var Categories = []string{
	CategoryQuoteRequest,
	CategoryNewOrderReceived,
	CategoryDeliveryFollowUp,
	CategoryOther,
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

var priorityByCategory = map[string]Priority{
	CategoryNewOrderReceived: PriorityHigh,
	CategoryDeliveryFollowUp: PriorityMedium,
	CategoryQuoteRequest:     PriorityMedium,
	CategoryOther:            PriorityLow,
}

var emojiByCategory = map[string]string{
	CategoryQuoteRequest:     "💰",
	CategoryNewOrderReceived: "📦",
	CategoryDeliveryFollowUp: "🚚",
	CategoryOther:            defaultCategoryEmoji,
}

// PriorityOf maps a category to its priority. Unrecognized categories are Low.
func PriorityOf(category string) Priority {
	if p, ok := priorityByCategory[category]; ok {
		return p
	}
	return PriorityLow
}

// EmojiOf returns the display glyph for a category.
func EmojiOf(category string) string {
	if e, ok := emojiByCategory[category]; ok {
		return e
	}
	return defaultCategoryEmoji
}

// IsKnownCategory reports whether category is one of the classifier labels.
func IsKnownCategory(category string) bool {
	_, ok := priorityByCategory[category]
	return ok
}

// ParsePriority validates a user supplied priority.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Rank orders priorities for sorting; unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}
