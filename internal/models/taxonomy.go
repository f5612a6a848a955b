package models

import (
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Tag is a named, colored label scoped to one user.
type Tag struct {
	ID      surrealmodels.RecordID `json:"id"`
	OwnerID string                 `json:"owner_id"`
	Name    string                 `json:"name"`
	Color   string                 `json:"color,omitempty"`
}

// Priority is a named, colored label with a rank.
// Lower rank means higher priority.
type Priority struct {
	ID      surrealmodels.RecordID `json:"id"`
	OwnerID string                 `json:"owner_id"`
	Name    string                 `json:"name"`
	Color   string                 `json:"color,omitempty"`
	Rank    int                    `json:"rank"`
}
