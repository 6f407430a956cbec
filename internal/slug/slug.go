// Package slug derives URL-safe project identifiers from display names.
package slug

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrTaken is returned by an insert that lost the race for a slug.
	ErrTaken = errors.New("slug already taken")
	// ErrExhausted is returned once every allowed attempt collided.
	ErrExhausted = errors.New("slug allocation attempts exhausted")
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses every run of characters outside
// [a-z0-9] into a single hyphen. A name with nothing left yields "-".
func Slugify(name string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "-"
	}
	return s
}

// Candidate returns the n-th probe for base: base itself, then base-1, base-2, ...
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// FirstFree returns the first candidate for base that taken rejects.
func FirstFree(base string, taken func(string) bool) string {
	for n := 0; ; n++ {
		if c := Candidate(base, n); !taken(c) {
			return c
		}
	}
}

// Allocator retries a slug-claiming insert when a concurrent writer wins the
// uniqueness race. Each attempt is expected to re-probe from scratch.
type Allocator struct {
	maxAttempts int
	onConflict  func(attempt int, err error)
}

// NewAllocator returns an Allocator making at most maxAttempts attempts.
// onConflict, when non-nil, is called after every collided attempt.
func NewAllocator(maxAttempts int, onConflict func(attempt int, err error)) *Allocator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Allocator{maxAttempts: maxAttempts, onConflict: onConflict}
}

// Run calls claim until it succeeds, fails with an error other than ErrTaken,
// or the attempt budget is spent.
func (a *Allocator) Run(claim func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		err := claim(attempt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTaken) {
			return err
		}
		lastErr = err
		if a.onConflict != nil {
			a.onConflict(attempt, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, a.maxAttempts, lastErr)
}
