package query

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// keySize is the fingerprint length in bytes.
const keySize = 16

// Key is the hex fingerprint of a canonical query. It is the cache key.
type Key string

// Valid reports whether k has the shape of a fingerprint.
func (k Key) Valid() bool {
	if len(k) != hex.EncodedLen(keySize) {
		return false
	}
	for _, r := range k {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func (k Key) String() string { return string(k) }

// Canonicalize renders q as compact JSON with keys in sorted order.
//
// Empty strings, unset constraints, unset tri-states and an unset rating are
// left out, so a field given explicitly as its empty value and a field never
// given at all produce the same text. Booleans and the page are always
// present.
func Canonicalize(q SearchQuery) string {
	q = q.normalized()

	fields := map[string]any{
		"single_chapter": q.SingleChapter,
		"page":           q.Page,
		"guest":          q.Guest,
	}

	for name, v := range map[string]string{
		"any_field":      q.AnyField,
		"title":          q.Title,
		"author":         q.Author,
		"language":       q.Language,
		"fandoms":        q.Fandoms,
		"characters":     q.Characters,
		"relationships":  q.Relationships,
		"tags":           q.Freeforms,
		"excluded_tags":  q.ExcludedTags,
		"sort_column":    string(q.SortColumn),
		"sort_direction": string(q.SortDirection),
		"revised_at":     q.RevisedAt,
	} {
		if v != "" {
			fields[name] = v
		}
	}

	for name, c := range q.constraints() {
		if c.IsSet() {
			fields[name] = c.String()
		}
	}

	if q.Crossover.IsSet() {
		fields["crossovers"] = q.Crossover == Yes
	}
	if q.Complete.IsSet() {
		fields["completion_status"] = q.Complete == Yes
	}
	if q.Rating != 0 {
		fields["rating"] = int(q.Rating)
	}

	// Map keys are emitted sorted; the encoder cannot fail on these types.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(fields)

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Fingerprint returns the 128-bit BLAKE2b digest of q's canonical form.
func Fingerprint(q SearchQuery) Key {
	h, _ := blake2b.New(keySize, nil)
	h.Write([]byte(Canonicalize(q)))
	return Key(hex.EncodeToString(h.Sum(nil)))
}
