package retrieval

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const DefaultMaxResults = 3

type scored struct {
	text  string
	score int
}

// RetrieveContext returns up to maxResults chunks of the selected documents,
// highest keyword score first. Only query terms longer than three characters
// count, and chunks without any hit are dropped. With no selection the
// result is empty.
func (s *Store) RetrieveContext(query string, maxResults int) []string {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}

	var hits []scored
	for _, chunks := range s.inScope() {
		for _, c := range chunks {
			lower := strings.ToLower(norm.NFC.String(c))
			score := 0
			for _, t := range terms {
				score += strings.Count(lower, t)
			}
			if score > 0 {
				hits = append(hits, scored{text: c, score: score})
			}
		}
	}

	slices.SortStableFunc(hits, func(a, b scored) int { return b.score - a.score })

	out := make([]string, 0, min(maxResults, len(hits)))
	for _, h := range hits[:min(maxResults, len(hits))] {
		out = append(out, h.text)
	}
	return out
}

func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(norm.NFC.String(query))) {
		if utf8.RuneCountInString(f) > 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// FormatContext renders passages as a numbered block ready to prefix a
// prompt. Empty input renders as "".
func FormatContext(passages []string) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("### Thông tin từ tài liệu tham khảo:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[Đoạn %d]:\n%s\n\n", i+1, p)
	}
	return b.String()
}
