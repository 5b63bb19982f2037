// Package id generates identifiers for catalog snapshots and event-stream
// clients.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	SnapshotPrefix = "snap"
	ClientPrefix   = "sse"
)

// alphabet keeps IDs lowercase so they read well in logs and URLs.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// idLength gives ~62 bits of entropy, ample for IDs that live as long as
// one process.
const idLength = 12

// Generate returns prefix-nanoid, e.g. "snap-4f9k2m0qz81x".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, idLength)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "-" + id, nil
}

// NewSnapshotID identifies a catalog snapshot.
func NewSnapshotID() (string, error) {
	return Generate(SnapshotPrefix)
}

// NewClientID identifies a connected event-stream client.
func NewClientID() (string, error) {
	return Generate(ClientPrefix)
}
