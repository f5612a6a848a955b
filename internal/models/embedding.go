package models

import "time"

// EmbeddingRecord shadows a reminder with a vector representation of its
// natural-language content. It is derived data: always reconstructable from
// the reminder it belongs to, and allowed to lag behind store mutations until
// the indexer catches up.
type EmbeddingRecord struct {
	ReminderID string    `json:"reminder_id"`
	OwnerID    string    `json:"owner_id"`
	Content    string    `json:"content"`
	Date       *string   `json:"date,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Updated    time.Time `json:"updated,omitempty"`
}

// SimilarityMatch is one row from a vector similarity search, joined with the
// reminder fields needed to build evidence.
type SimilarityMatch struct {
	ReminderID string  `json:"reminder_id"`
	Content    string  `json:"content"`
	Date       *string `json:"date,omitempty"`
	Score      float64 `json:"score"`
}
