// Package utils holds small cross-cutting helpers shared by every SimDB
// package, following the teacher's pkg/utils layout.
package utils

import (
	"log"

	"github.com/google/uuid"
)

// GenerateID generates a new UUID v4 string, used for ObjectManager
// connection ids and ReportTimeseries header ids (spec.md §6.1's
// requirement that generated filenames/ids be UUID-stemmed).
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.Printf("Failed to generate UUID: %v", err)
		return ""
	}
	return id.String()
}

// IsValidUUID checks if the string is a valid UUID.
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
