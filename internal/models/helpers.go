// Package models defines the data structures for the reminder core.
package models

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// DateLayout and TimeLayout are the only formats accepted at the wire
// boundary: ISO calendar dates and 24-hour clock times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a well-formed "HH:mm" clock time.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
// Returns an error if the ID is not a string type.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

// MustRecordIDString extracts the string ID, panicking if not a string.
// Use only after DB operations that are known to return string IDs.
func MustRecordIDString(id surrealmodels.RecordID) string {
	s, err := RecordIDString(id)
	if err != nil {
		panic(err)
	}
	return s
}

// RecordIDStringPtr extracts the string ID from an optional RecordID,
// returning nil when the reference itself is nil.
func RecordIDStringPtr(id *surrealmodels.RecordID) *string {
	if id == nil {
		return nil
	}
	s := MustRecordIDString(*id)
	return &s
}
