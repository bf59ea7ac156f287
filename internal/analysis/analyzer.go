// Package analysis turns job and query text into comparable terms. The index,
// the query parser, the suggest engine and the content recommender all share
// one Analyzer so their terms line up.
package analysis

import (
	"fmt"
	"strings"

	bleveanalysis "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/de"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

// DefaultLanguage is used for text without a language or with an unsupported one.
const DefaultLanguage = "en"

var stopFilters = map[string]string{
	"en": en.StopName,
	"fr": fr.StopName,
	"de": de.StopName,
	"es": es.StopName,
}

type tokenAnalyzer interface {
	Analyze(input []byte) bleveanalysis.TokenStream
}

// Analyzer tokenizes, lowercases and removes language stop words.
// Safe for concurrent use.
type Analyzer struct {
	byLang map[string]tokenAnalyzer
}

// New builds analyzers for every supported language.
func New() (*Analyzer, error) {
	cache := registry.NewCache()
	a := &Analyzer{byLang: make(map[string]tokenAnalyzer, len(stopFilters))}
	for lang, stop := range stopFilters {
		name := "jobmatch_" + lang
		an, err := cache.DefineAnalyzer(name, map[string]interface{}{
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": []string{lowercase.Name, stop},
		})
		if err != nil {
			return nil, fmt.Errorf("define analyzer %s: %w", name, err)
		}
		a.byLang[lang] = an
	}
	return a, nil
}

// Language normalizes a language tag to a supported analyzer language.
// "de-AT" maps to "de"; anything unknown maps to DefaultLanguage.
func (a *Analyzer) Language(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if _, ok := a.byLang[l]; ok {
		return l
	}
	return DefaultLanguage
}

// Terms returns the terms of text in order of appearance, duplicates kept.
func (a *Analyzer) Terms(text, lang string) []string {
	if text == "" {
		return nil
	}
	stream := a.byLang[a.Language(lang)].Analyze([]byte(text))
	if len(stream) == 0 {
		return nil
	}
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// Frequencies returns term counts for text.
func (a *Analyzer) Frequencies(text, lang string) map[string]int {
	terms := a.Terms(text, lang)
	if len(terms) == 0 {
		return nil
	}
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}
