package safename_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktagon/digest-scraper/internal/safename"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title", "Weekly Digest 2021-03-01", "Weekly Digest 2021-03-01"},
		{"surrounding space", "  Digest  ", "Digest"},
		{"reserved chars", `Digest: "big" <week>?`, `Digest_ _big_ _week__`},
		{"control chars", "Digest\tnotes\n", "Digest_notes"},
		{"trailing dots", "Digest...", "Digest"},
		{"unicode kept", "Résumé Digest", "Résumé Digest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := safename.Sanitize(tt.title)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_Rejects(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"", "   ", ".", "..", "../Digest", `..\Digest`, "a/b Digest", "Digest\x00"} {
		_, err := safename.Sanitize(title)
		assert.ErrorIs(t, err, safename.ErrUnsafe, "title %q", title)
	}
}

func TestSanitize_Truncates(t *testing.T) {
	t.Parallel()

	got, err := safename.Sanitize(strings.Repeat("é", 200))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), safename.MaxLength)
	assert.True(t, strings.HasPrefix(got, "é"))
	assert.Equal(t, 0, len(got)%2, "truncation must not split a rune")
}

func TestIsSafe(t *testing.T) {
	t.Parallel()

	assert.True(t, safename.IsSafe("Weekly Digest"))
	assert.False(t, safename.IsSafe("Weekly: Digest"))
	assert.False(t, safename.IsSafe("../Digest"))
}
