package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// PaperPrefix is prepended to PubMed ids to match the DOC_ID column.
const PaperPrefix = "PM"

// AllKeys is the aggregate category over all keyword categories.
const AllKeys = "all_keys"

// CategorySource locates the keyword file of a category.
type CategorySource interface {
	CategoryFile(category string) string
}

// Record is one line of a category file.
type Record struct {
	PaperID   string // prefixed with PaperPrefix
	KeywordID string // raw identifier term, possibly several ids
	Names     string
	Method    string
}

// ReadRecords calls fn for every well formed line of a category file:
// four tab separated fields, '#' lines are comments.
func ReadRecords(r io.Reader, fn func(Record) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		items := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
		if len(items) != 4 {
			continue
		}
		if !fn(Record{PaperID: PaperPrefix + items[0], KeywordID: items[1], Names: items[2], Method: items[3]}) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read category file: %w", err)
	}
	return nil
}

func readCategory(src CategorySource, category string, fn func(Record) bool) error {
	path := src.CategoryFile(category)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open category file: %w", err)
	}
	defer file.Close()
	if err := ReadRecords(file, fn); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadSubsetIDs reads one PubMed id per line and returns them prefixed.
func ReadSubsetIDs(r io.Reader) (map[string]bool, error) {
	subset := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		subset[PaperPrefix+id] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subset ids: %w", err)
	}
	return subset, nil
}

// LoadSubsetIDs reads the paper subset file at path.
func LoadSubsetIDs(path string) (map[string]bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subset ids: %w", err)
	}
	defer file.Close()
	return ReadSubsetIDs(file)
}

// PapersInCategory collects the subset papers that have a keyword of the category.
func PapersInCategory(r io.Reader, subset map[string]bool) (map[string]bool, error) {
	papers := make(map[string]bool)
	err := ReadRecords(r, func(rec Record) bool {
		if subset[rec.PaperID] {
			papers[rec.PaperID] = true
		}
		return true
	})
	return papers, err
}

// PaperCategories maps every subset paper to the categories it has keywords in.
func PaperCategories(src CategorySource, categories []string, subset map[string]bool, logger zerolog.Logger) (map[string]map[string]bool, error) {
	papers := make(map[string]map[string]bool)
	for _, cat := range categories {
		err := readCategory(src, cat, func(rec Record) bool {
			if !subset[rec.PaperID] {
				return true
			}
			if papers[rec.PaperID] == nil {
				papers[rec.PaperID] = make(map[string]bool)
			}
			papers[rec.PaperID][cat] = true
			return true
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("category", cat).Msg("read key file")
	}
	return papers, nil
}

// PaperKeywords maps every subset paper to its keyword ids per category,
// namespaces stripped and duplicates kept.
func PaperKeywords(src CategorySource, categories []string, subset map[string]bool, logger zerolog.Logger) (map[string]map[string][]string, error) {
	papers := make(map[string]map[string][]string)
	for _, cat := range categories {
		err := readCategory(src, cat, func(rec Record) bool {
			if !subset[rec.PaperID] {
				return true
			}
			if papers[rec.PaperID] == nil {
				papers[rec.PaperID] = make(map[string][]string)
			}
			papers[rec.PaperID][cat] = append(papers[rec.PaperID][cat], KeywordsFromList(rec.KeywordID)...)
			return true
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("category", cat).Msg("read key file")
	}
	return papers, nil
}

// KeywordCounts maps every subset paper to its number of keyword ids per
// category. The AllKeys entry holds the sum over categories.
func KeywordCounts(src CategorySource, categories []string, subset map[string]bool, logger zerolog.Logger) (map[string]map[string]int, error) {
	papers := make(map[string]map[string]int)
	for _, cat := range categories {
		err := readCategory(src, cat, func(rec Record) bool {
			if !subset[rec.PaperID] {
				return true
			}
			counts := papers[rec.PaperID]
			if counts == nil {
				counts = make(map[string]int, len(categories)+1)
				for _, c := range categories {
					counts[c] = 0
				}
				counts[AllKeys] = 0
				papers[rec.PaperID] = counts
			}
			n := len(SplitKeywordIDs(rec.KeywordID))
			counts[cat] += n
			counts[AllKeys] += n
			return true
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Str("category", cat).Msg("read file for category")
	}
	return papers, nil
}

// FindConnectingPapers returns up to max PubMed ids (without prefix) of
// papers that mention kw1 in first and kw2 in second.
func FindConnectingPapers(first, second io.Reader, kw1, kw2 string, max int) ([]string, error) {
	withKw1 := make(map[string]bool)
	err := ReadRecords(first, func(rec Record) bool {
		if rec.KeywordID == kw1 {
			withKw1[rec.PaperID] = true
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	var found []string
	err = ReadRecords(second, func(rec Record) bool {
		if withKw1[rec.PaperID] && rec.KeywordID == kw2 {
			found = append(found, strings.TrimPrefix(rec.PaperID, PaperPrefix))
			if len(found) == max {
				return false
			}
		}
		return true
	})
	return found, err
}

// FindConnectingPapersIn searches the category files for papers linking
// kw1 and kw2. Candidate categories are tried pairwise and the search
// stops at the first combination with a match.
func FindConnectingPapersIn(src CategorySource, cats1, cats2 []string, kw1, kw2 string, max int) ([]string, error) {
	for _, c1 := range cats1 {
		for _, c2 := range cats2 {
			found, err := findInFiles(src.CategoryFile(c1), src.CategoryFile(c2), kw1, kw2, max)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found, nil
			}
		}
	}
	return nil, nil
}

func findInFiles(path1, path2, kw1, kw2 string, max int) ([]string, error) {
	f1, err := os.Open(path1)
	if err != nil {
		return nil, fmt.Errorf("failed to open category file: %w", err)
	}
	defer f1.Close()
	f2, err := os.Open(path2)
	if err != nil {
		return nil, fmt.Errorf("failed to open category file: %w", err)
	}
	defer f2.Close()
	return FindConnectingPapers(f1, f2, kw1, kw2, max)
}
