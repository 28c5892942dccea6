// Package service contains the stateless domain services of the message pipeline.
package service

import (
	"fmt"
	"slices"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	apperrors "github.com/edgard/chatmessages/internal/errors"
)

// DefaultDenyList is used when no deny-list is configured.
var DefaultDenyList = []string{"spam", "malware", "phishing", "scam", "hack"}

// ContentFilter rejects content containing any deny-listed term. Matching is
// a case-insensitive substring search, so "hacker" matches "hack".
type ContentFilter struct {
	matcher  *goahocorasick.Machine
	denyList []string
}

// NewContentFilter builds the matcher once for the whole deny-list. Terms are
// trimmed and lower-cased; blank entries are ignored. An empty list accepts
// everything.
func NewContentFilter(denyList []string) (*ContentFilter, error) {
	terms := lo.Uniq(lo.FilterMap(denyList, func(term string, _ int) (string, bool) {
		term = strings.ToLower(strings.TrimSpace(term))
		return term, term != ""
	}))
	slices.Sort(terms)

	f := &ContentFilter{denyList: terms}
	if len(terms) == 0 {
		return f, nil
	}

	patterns := lo.Map(terms, func(term string, _ int) []rune {
		return []rune(term)
	})
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("failed to build deny-list matcher: %w", err)
	}
	f.matcher = m
	return f, nil
}

// Filter trims content and checks it against the deny-list. The trimmed
// original-case text is returned when it passes. Empty content passes; entity
// construction rejects it.
func (f *ContentFilter) Filter(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if f.matcher == nil || trimmed == "" {
		return trimmed, nil
	}

	hits := f.matcher.MultiPatternSearch([]rune(strings.ToLower(trimmed)), true)
	if len(hits) > 0 {
		return "", apperrors.NewInvalidContentError("content contains inappropriate words")
	}
	return trimmed, nil
}

// DenyList returns the normalised terms the filter matches.
func (f *ContentFilter) DenyList() []string {
	return slices.Clone(f.denyList)
}
