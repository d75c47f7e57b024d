package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("search")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"search", "job", "x"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(id, prefix+"-"))
			suffix := strings.TrimPrefix(id, prefix+"-")
			assert.Len(t, suffix, 16)
			for _, r := range suffix {
				assert.Contains(t, alphabet, string(r))
			}
			assert.True(t, Valid(id, prefix))
		})
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, Valid(MustGenerate("search"), "search"))
	})
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"generated shape", "search-0123456789abcdef", true},
		{"wrong prefix", "job-0123456789abcdef", false},
		{"missing prefix", "0123456789abcdef", false},
		{"too short", "search-0123", false},
		{"upper case", "search-0123456789ABCDEF", false},
		{"path characters", "search-0123456789abc/..", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.id, "search"))
		})
	}
}
