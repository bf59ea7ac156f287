package index

import (
	"strings"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// Field is a weighted text field of a search document.
type Field int

// Indexed fields, highest weight tier first.
const (
	FieldTitle Field = iota
	FieldDescription
	FieldCompany
	numFields
)

// Fields lists every indexed field.
var Fields = [numFields]Field{FieldTitle, FieldDescription, FieldCompany}

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldCompany:
		return "company"
	}
	return "unknown"
}

// Weights are the per-field score multipliers.
type Weights struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Company     float64 `yaml:"company"`
}

// DefaultWeights returns title 1.0, description 0.6, company 0.3.
func DefaultWeights() Weights {
	return Weights{Title: 1.0, Description: 0.6, Company: 0.3}
}

// Of returns the weight of f.
func (w Weights) Of(f Field) float64 {
	switch f {
	case FieldTitle:
		return w.Title
	case FieldDescription:
		return w.Description
	case FieldCompany:
		return w.Company
	}
	return 0
}

// Min returns the smallest field weight.
func (w Weights) Min() float64 {
	return min(w.Title, w.Description, w.Company)
}

// Max returns the largest field weight.
func (w Weights) Max() float64 {
	return max(w.Title, w.Description, w.Company)
}

// Document is the immutable search representation of one published job.
type Document struct {
	job     job.Job
	lang    string
	terms   [numFields]map[string]int
	version time.Time
}

func newDocument(an *analysis.Analyzer, j *job.Job, version time.Time) *Document {
	lang := an.Language(j.Language)
	desc := j.Description
	if j.Requirements != "" {
		desc += "\n" + j.Requirements
	}
	if len(j.Skills) > 0 {
		desc += "\n" + strings.Join(j.Skills, " ")
	}
	d := &Document{job: *j, lang: lang, version: version}
	d.job.Skills = append([]string(nil), j.Skills...)
	d.terms[FieldTitle] = an.Frequencies(j.Title, lang)
	d.terms[FieldDescription] = an.Frequencies(desc, lang)
	d.terms[FieldCompany] = an.Frequencies(j.Company, lang)
	return d
}

// ID returns the job id.
func (d *Document) ID() string { return d.job.ID }

// Job returns the job attributes the document was built from. Callers must not modify it.
func (d *Document) Job() *job.Job { return &d.job }

// Lang returns the normalized analyzer language.
func (d *Document) Lang() string { return d.lang }

// Version returns the timestamp of the mutation the document reflects.
func (d *Document) Version() time.Time { return d.version }

// TF returns the frequency of term in field f.
func (d *Document) TF(f Field, term string) int { return d.terms[f][term] }

// Terms returns the term frequencies of field f. Callers must not modify the map.
func (d *Document) Terms(f Field) map[string]int { return d.terms[f] }
