// Package extract recovers structured JSON payloads from the free text an
// inference service returns. Models embed JSON inside prose, inside fenced
// code blocks, or not at all; this package absorbs that unreliability so
// task nodes can parse into typed results.
//
// Extraction is pure and synchronous: no I/O, no state. Schema conformance
// is the caller's responsibility.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Sentinel errors for extraction failures.
var (
	// ErrNotFound indicates the text contains no candidate payload at all.
	ErrNotFound = errors.New("no structured payload found")

	// ErrMalformed indicates a candidate payload was found but does not parse.
	ErrMalformed = errors.New("malformed payload")
)

// snippetLen bounds how much of a bad candidate is carried for diagnostics.
const snippetLen = 200

// fenceRe matches a fenced code block with an optional language tag.
var fenceRe = regexp.MustCompile("(?is)```(?:[a-z0-9_-]+)?\\s*(.*?)\\s*```")

// Error describes an extraction failure.
// Unwrap yields ErrNotFound or ErrMalformed for errors.Is checks.
type Error struct {
	// Snippet holds the leading characters of the candidate payload.
	// Empty when no candidate was located.
	Snippet string
	// Err is ErrNotFound or ErrMalformed, or a wrapped parse error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("extract: %v", e.Err)
	}
	return fmt.Sprintf("extract: %v: %q", e.Err, e.Snippet)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON extracts the single JSON payload embedded in text and unmarshals it
// into T. Content inside a fenced code block is preferred; otherwise the
// substring between the first '{' and the last '}' is used.
func JSON[T any](text string) (T, error) {
	var result T

	candidate, ok := locate(text)
	if !ok {
		return result, &Error{Err: ErrNotFound}
	}

	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return result, &Error{
			Snippet: snippet(candidate),
			Err:     fmt.Errorf("%w: %v", ErrMalformed, err),
		}
	}
	return result, nil
}

// JSONLenient is JSON with a repair fallback: a candidate that fails strict
// parsing is run through jsonrepair and retried before giving up. Use only
// where a best-effort result is acceptable; task nodes use the strict form.
func JSONLenient[T any](text string) (T, error) {
	result, err := JSON[T](text)
	if err == nil || !errors.Is(err, ErrMalformed) {
		return result, err
	}

	candidate, _ := locate(text)
	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return result, err
	}
	if parseErr := json.Unmarshal([]byte(repaired), &result); parseErr != nil {
		return result, err
	}
	return result, nil
}

// locate finds the candidate payload substring, preferring fenced blocks.
func locate(text string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), true
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 || last <= first {
		return "", false
	}
	return strings.TrimSpace(text[first : last+1]), true
}

// snippet truncates a candidate for error reporting.
func snippet(candidate string) string {
	if len(candidate) <= snippetLen {
		return candidate
	}
	return candidate[:snippetLen]
}
