package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePromptTooShort(t *testing.T) {
	_, err := SanitizePrompt("ab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSanitizePromptTooLong(t *testing.T) {
	_, err := SanitizePrompt(strings.Repeat("a", 1001))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func TestSanitizePromptAcceptsAccents(t *testing.T) {
	got, err := SanitizePrompt("  Un cocktail fruité à la pêche, sans alcool !  ")
	require.NoError(t, err)
	assert.Equal(t, "Un cocktail fruité à la pêche, sans alcool !", got)
}

func TestSanitizePromptStripsMarkup(t *testing.T) {
	got, err := SanitizePrompt("Mojito with <script>alert(1)</script>")
	if err != nil {
		// Rejecting the leftover "alert(1)" is acceptable; what must
		// never happen is markup surviving sanitization.
		assert.Contains(t, err.Error(), "disallowed")
		return
	}
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, ">")
	assert.NotContains(t, got, "script")
}

func TestSanitizePromptRejectsDisallowedCharacters(t *testing.T) {
	_, err := SanitizePrompt("gin & tonic; DROP TABLE cocktails")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disallowed")
}

func TestSanitizePromptExactBounds(t *testing.T) {
	got, err := SanitizePrompt("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = SanitizePrompt(strings.Repeat("a", 1000))
	require.NoError(t, err)
	assert.Len(t, got, 1000)
}

func TestValidateID(t *testing.T) {
	for _, raw := range []string{"0", "-5", "abc", "2147483648", ""} {
		_, err := ValidateID(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}

	id, err := ValidateID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ValidateID("2147483647")
	require.NoError(t, err)
	assert.Equal(t, int64(2147483647), id)
}

func TestValidatePagination(t *testing.T) {
	page, perPage := ValidatePagination("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, perPage)

	page, perPage = ValidatePagination("0", "999")
	assert.Equal(t, 1, page)
	assert.Equal(t, 50, perPage)

	page, perPage = ValidatePagination("-3", "abc")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, perPage)

	page, perPage = ValidatePagination("7", "25")
	assert.Equal(t, 7, page)
	assert.Equal(t, 25, perPage)
}

func TestIsSafeRelativePath(t *testing.T) {
	assert.False(t, IsSafeRelativePath("../../etc/passwd"))
	assert.False(t, IsSafeRelativePath("/etc/passwd"))
	assert.False(t, IsSafeRelativePath(`images\..\secret`))
	assert.False(t, IsSafeRelativePath(""))
	assert.True(t, IsSafeRelativePath("cocktail_123.png"))
}

func TestIsAllowedImageName(t *testing.T) {
	assert.True(t, IsAllowedImageName("cocktail_123.png"))
	assert.True(t, IsAllowedImageName("photo.JPEG"))
	assert.False(t, IsAllowedImageName("notes.txt"))
	assert.False(t, IsAllowedImageName("../cocktail.png"))
	assert.False(t, IsAllowedImageName("run.sh"))
}
