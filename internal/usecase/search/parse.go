package search

import (
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/query"
)

// Parser turns request text into a Query using the analyzer the index was built with.
type Parser struct {
	analyzer    *analysis.Analyzer
	defaultLang string
}

// NewParser creates a parser. defaultLang applies to requests without a language.
func NewParser(an *analysis.Analyzer, defaultLang string) *Parser {
	return &Parser{analyzer: an, defaultLang: an.Language(defaultLang)}
}

// Parse validates raw text and filters. Rejection is total: a query with any
// malformed filter fails with domain.ErrInvalidFilter.
func (p *Parser) Parse(raw, lang string, filters query.Filters) (query.Query, error) {
	raw = strings.TrimSpace(raw)
	if lang == "" {
		lang = p.defaultLang
	}
	lang = p.analyzer.Language(lang)
	if len(raw) > query.MaxQueryLength {
		// Checked before analysis so oversized input is never tokenized.
		return query.New(raw, nil, lang, filters)
	}
	return query.New(raw, p.analyzer.Terms(raw, lang), lang, filters)
}
