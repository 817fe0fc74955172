package corpus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var keywordSeparators = regexp.MustCompile(`[|;,]`)

// SplitKeywordIDs separates a keyword term into identifiers at '|', ';' and ','.
func SplitKeywordIDs(term string) []string {
	return keywordSeparators.Split(term, -1)
}

// KeywordsFromList splits a keyword term and removes MESH:/CHEBI: prefixes.
func KeywordsFromList(term string) []string {
	ids := SplitKeywordIDs(term)
	for i, id := range ids {
		id = strings.ReplaceAll(id, "MESH:", "")
		ids[i] = strings.ReplaceAll(id, "CHEBI:", "")
	}
	return ids
}

// StripPrefix removes the namespace of a single identifier, e.g. "MESH:D000001".
func StripPrefix(id string) (string, error) {
	i := strings.Index(id, ":")
	if len(id) <= 5 || i < 0 {
		return "", fmt.Errorf("cannot extract keyword from %q", id)
	}
	return id[i+1:], nil
}

// GuessCategories returns the categories an identifier may belong to.
// CHEBI ids are chemicals, MESH ids chemicals or diseases, anything else a gene.
func GuessCategories(id string) []string {
	switch {
	case strings.HasPrefix(id, "CHEBI"):
		return []string{"chemical"}
	case strings.HasPrefix(id, "MESH"):
		return []string{"chemical", "disease"}
	default:
		return []string{"gene"}
	}
}

// Rounding selects how ParseYear aligns a year to the five year grid.
type Rounding int

const (
	Exact Rounding = iota
	Floor
	Ceil
)

// ParseYear converts a year column value. Ranges such as "1998-1999" use
// their last four characters. ok is false when no year can be read.
//
// Floor and Ceil align to the grid ..., 1997, 2002, 2007, ...
func ParseYear(s string, rounding Rounding) (year int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[len(s)-4:]
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}

	offset := mod(y-2, 5)
	switch rounding {
	case Floor:
		return y - offset, true
	case Ceil:
		if offset > 0 {
			return y - offset + 5, true
		}
	}
	return y, true
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
