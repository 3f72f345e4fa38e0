// Package security validates and sanitizes untrusted request input before
// it reaches business logic: free-text prompts, numeric identifiers,
// pagination parameters and user-influenced file names.
package security

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ValidationError reports caller-supplied data that violates a documented
// constraint. Handlers surface the message as a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

const (
	// MinPromptLen and MaxPromptLen bound a sanitized prompt, in runes.
	MinPromptLen = 3
	MaxPromptLen = 1000

	// MaxID is the largest accepted identifier (INT32 limit, matching the
	// database column).
	MaxID = 2147483647

	// Pagination defaults and bounds
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 50
)

var (
	// Word characters, whitespace, common Latin-accented letters and
	// basic punctuation. Anything that could carry markup is excluded.
	promptPattern = regexp.MustCompile(`^[\w\s.,!?'\-àâäéèêëïîôöùûüÿçÀÂÄÉÈÊËÏÎÔÖÙÛÜŸÇ]+$`)

	tagPattern = regexp.MustCompile(`<[^>]*>`)
)

// SanitizePrompt trims, strips markup from and validates a free-text user
// prompt. Markup tags are removed before the charset check: the allowed
// charset cannot express markup, so escaping at ingestion would only
// double-encode; output encoding is left to the consumer.
func SanitizePrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(raw)

	if len([]rune(prompt)) < MinPromptLen {
		return "", validationErrorf("prompt too short: at least 3 characters required")
	}
	if len([]rune(prompt)) > MaxPromptLen {
		return "", validationErrorf("prompt too long: at most 1000 characters allowed")
	}

	// Defense in depth: drop anything tag-shaped, then re-check bounds
	// since stripping can shorten the text.
	prompt = strings.TrimSpace(tagPattern.ReplaceAllString(prompt, ""))
	if len([]rune(prompt)) < MinPromptLen {
		return "", validationErrorf("prompt too short: at least 3 characters required")
	}

	if !promptPattern.MatchString(prompt) {
		return "", validationErrorf("prompt contains disallowed characters")
	}

	return prompt, nil
}

// ValidateID parses a positive 32-bit identifier from its string form
func ValidateID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, validationErrorf("identifier must be an integer")
	}
	if id <= 0 {
		return 0, validationErrorf("identifier must be positive")
	}
	if id > MaxID {
		return 0, validationErrorf("identifier too large")
	}
	return id, nil
}

// ValidatePagination returns usable pagination values for any input.
// Unlike the other validators it never fails: invalid or missing values
// fall back to defaults, page is floored at 1 and perPage clamped to
// [1, MaxPerPage].
func ValidatePagination(pageRaw, perPageRaw string) (page, perPage int) {
	page = DefaultPage
	if p, err := strconv.Atoi(pageRaw); err == nil && p > 0 {
		page = p
	}

	perPage = DefaultPerPage
	if pp, err := strconv.Atoi(perPageRaw); err == nil {
		switch {
		case pp < 1:
			perPage = DefaultPerPage
		case pp > MaxPerPage:
			perPage = MaxPerPage
		default:
			perPage = pp
		}
	}
	return page, perPage
}

// allowed extensions for statically served images
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsSafeRelativePath reports whether a user-influenced file name is safe
// to join onto the static images directory: no parent-directory segments,
// no absolute paths, no backslashes.
func IsSafeRelativePath(candidate string) bool {
	if candidate == "" {
		return false
	}
	if strings.Contains(candidate, "..") {
		return false
	}
	if strings.HasPrefix(candidate, "/") {
		return false
	}
	if strings.Contains(candidate, "\\") {
		return false
	}
	return true
}

// IsAllowedImageName reports whether a file name is both traversal-safe
// and carries an allowed image extension.
func IsAllowedImageName(name string) bool {
	if !IsSafeRelativePath(name) {
		return false
	}
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}
