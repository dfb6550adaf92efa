// Package id provides unique identifier generation for split jobs.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Generate creates a new unique job ID.
// Format: split-<timestamp>-<random>
// Example: split-1701432000-a1b2c3d4e5f6
// IDs contain only characters that are safe as a single path element.
func Generate() string {
	timestamp := time.Now().Unix()
	random := make([]byte, 6)
	if _, err := rand.Read(random); err != nil {
		// Fallback to nanosecond timestamp if crypto/rand fails
		return fmt.Sprintf("split-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("split-%d-%s", timestamp, hex.EncodeToString(random))
}
