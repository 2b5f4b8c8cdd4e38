// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	DevicePrefix    = "dv-"
	EventPrefix     = "ev-"
	CaregiverPrefix = "cg-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Device returns a new device ID.
func Device() (string, error) { return GenerateWithPrefix(DevicePrefix) }

// Event returns a new event ID.
func Event() (string, error) { return GenerateWithPrefix(EventPrefix) }

// Caregiver returns a new caregiver ID.
func Caregiver() (string, error) { return GenerateWithPrefix(CaregiverPrefix) }

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
