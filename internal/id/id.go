// Package id generates the short random identifiers handed out for
// background search jobs.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 16
)

// Generate returns prefix-<16 lowercase alphanumerics>, e.g.
// "search-3k9x0c2m8q1v7b4n".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Valid reports whether s has the shape Generate produces for prefix.
func Valid(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok || len(rest) != size {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
