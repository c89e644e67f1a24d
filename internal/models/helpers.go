package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateID generates a new prefixed unique id
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// GetCurrentTime returns the current time in UTC
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}
