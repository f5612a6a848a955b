package models

import "sort"

// EvidenceItem is one ranked reminder backing a search answer.
// Score is 1.0 for exact date-range membership, else a cosine-derived value
// in [0,1] for semantic matches.
type EvidenceItem struct {
	ReminderID string  `json:"reminder_id"`
	Title      string  `json:"title"`
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	Completed  bool    `json:"completed"`
	TagID      *string `json:"tag_id,omitempty"`
	PriorityID *string `json:"priority_id,omitempty"`
	Score      float64 `json:"score"`
}

// SortEvidence orders items by score descending, then by time ascending
// within score ties (items without a time sort last within their tie group).
func SortEvidence(items []EvidenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		ti, tj := items[i].Time, items[j].Time
		switch {
		case ti == nil && tj == nil:
			return false
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return *ti < *tj
		}
	})
}

// SearchResult is the outcome of a hybrid retrieval call: a natural-language
// answer, a follow-up prompt, and the evidence the answer is built from.
type SearchResult struct {
	Answer   string         `json:"answer"`
	FollowUp string         `json:"follow_up"`
	Evidence []EvidenceItem `json:"evidence"`
}
