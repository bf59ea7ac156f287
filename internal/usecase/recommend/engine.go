package recommend

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/analysis"
	"github.com/kailas-cloud/jobmatch/internal/domain/interaction"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
	domrec "github.com/kailas-cloud/jobmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/jobmatch/internal/index"
)

// trendingReasonAt is the normalized popularity from which a job is called trending.
const trendingReasonAt = 0.5

// Weights blend the component scores.
type Weights struct {
	Content       float64
	Collaborative float64
	Popularity    float64
}

// DefaultWeights returns content 0.5, collaborative 0.3, popularity 0.2.
func DefaultWeights() Weights {
	return Weights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}
}

func (w Weights) sum() float64 { return w.Content + w.Collaborative + w.Popularity }

// EngineConfig tunes scoring.
type EngineConfig struct {
	Weights  Weights
	HalfLife time.Duration
	// MinScore drops blended scores below it.
	MinScore float64
}

// DefaultEngineConfig returns the default scoring parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Weights: DefaultWeights(), HalfLife: 72 * time.Hour, MinScore: 0.1}
}

// Neighbor is a similar user with the jobs they interacted with.
type Neighbor struct {
	UserID     string
	Similarity float64
	Jobs       map[string]float64
}

// Input is everything known about one user at scoring time.
type Input struct {
	// Profile is nil for users without a profile snapshot.
	Profile *domprofile.Profile
	// Interactions maps job id to the strongest interaction weight.
	Interactions map[string]float64
	Dismissed    map[string]struct{}
	Neighbors    []Neighbor
}

func (in *Input) excluded(jobID string) bool {
	if _, ok := in.Dismissed[jobID]; ok {
		return true
	}
	w, ok := in.Interactions[jobID]
	return ok && interaction.Applied(w)
}

// Scored is one ranked recommendation before persistence.
type Scored struct {
	JobID     string
	Score     float64
	Breakdown domrec.Breakdown
	Algorithm domrec.Algorithm
	Reason    string
}

// Engine scores index documents for a user. Pure: identical inputs and clock
// give identical output.
type Engine struct {
	analyzer *analysis.Analyzer
	cfg      EngineConfig
}

// NewEngine creates an engine.
func NewEngine(an *analysis.Analyzer, cfg EngineConfig) *Engine {
	return &Engine{analyzer: an, cfg: cfg}
}

type candidate struct {
	doc *index.Document
	pop float64
}

// candidates returns searchable, non-excluded jobs with raw popularity and the maximum.
func (e *Engine) candidates(snap *index.Snapshot, in *Input, now time.Time) ([]candidate, float64) {
	var out []candidate
	top := 0.0
	snap.Each(func(d *index.Document) bool {
		j := d.Job()
		if !j.Searchable(now) || in.excluded(j.ID) {
			return true
		}
		p := job.Popularity(j, now, e.cfg.HalfLife)
		top = max(top, p)
		out = append(out, candidate{doc: d, pop: p})
		return true
	})
	return out, top
}

// Score blends content, collaborative and popularity signals and returns at most
// limit jobs ordered by score desc, job id asc.
func (e *Engine) Score(snap *index.Snapshot, in *Input, now time.Time, limit int) []Scored {
	cands, top := e.candidates(snap, in, now)
	user := e.profileVector(in.Profile)
	w := e.cfg.Weights
	total := w.sum()
	if total <= 0 {
		return nil
	}

	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		jv := e.jobVector(c.doc)
		b := domrec.Breakdown{
			Content:       cosine(user.all, jv.all),
			Collaborative: collaborative(in.Neighbors, c.doc.ID()),
		}
		if top > 0 {
			b.Popularity = c.pop / top
		}
		score := (w.Content*b.Content + w.Collaborative*b.Collaborative + w.Popularity*b.Popularity) / total
		if score < e.cfg.MinScore {
			continue
		}
		out = append(out, Scored{
			JobID:     c.doc.ID(),
			Score:     score,
			Breakdown: b,
			Algorithm: algorithmOf(w, b),
			Reason:    reason(user, jv, b),
		})
	}
	return rankScored(out, limit)
}

// Popular ranks candidates by normalized popularity alone. Used as the
// degraded fallback when personalized scoring is unavailable.
func (e *Engine) Popular(snap *index.Snapshot, in *Input, now time.Time, limit int) []Scored {
	cands, top := e.candidates(snap, in, now)
	out := make([]Scored, 0, len(cands))
	for _, c := range cands {
		p := 0.0
		if top > 0 {
			p = c.pop / top
		}
		out = append(out, Scored{
			JobID:     c.doc.ID(),
			Score:     p,
			Breakdown: domrec.Breakdown{Popularity: p},
			Algorithm: domrec.Trending,
			Reason:    "trending now",
		})
	}
	return rankScored(out, limit)
}

func rankScored(out []Scored, limit int) []Scored {
	slices.SortFunc(out, func(a, b Scored) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.JobID, b.JobID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NearestNeighbors returns the k users whose interacted jobs overlap most with
// own by Jaccard similarity. Users without overlap are never neighbors.
func NearestNeighbors(own map[string]float64, others map[string]map[string]float64, k int) []Neighbor {
	if len(own) == 0 || k <= 0 {
		return nil
	}
	out := make([]Neighbor, 0, len(others))
	for uid, jobs := range others {
		if sim := jaccard(own, jobs); sim > 0 {
			out = append(out, Neighbor{UserID: uid, Similarity: sim, Jobs: jobs})
		}
	}
	slices.SortFunc(out, func(a, b Neighbor) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		return strings.Compare(a.UserID, b.UserID)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func jaccard(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for id := range a {
		if _, ok := b[id]; ok {
			common++
		}
	}
	return float64(common) / float64(len(a)+len(b)-common)
}

// collaborative is the similarity-weighted mean interaction strength of the
// neighbors with jobID. Neighbors who never touched the job count as zero.
func collaborative(neighbors []Neighbor, jobID string) float64 {
	num, den := 0.0, 0.0
	for _, n := range neighbors {
		den += n.Similarity
		if w, ok := n.Jobs[jobID]; ok {
			num += n.Similarity * w
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// vector is a binary bag of tokens.
type vector struct {
	all map[string]struct{}
	// skills maps each user skill to its tokens. Empty for job vectors.
	skills    map[string][]string
	locations map[string]struct{}
}

func newVector() vector {
	return vector{all: map[string]struct{}{}, skills: map[string][]string{}, locations: map[string]struct{}{}}
}

func (v vector) add(tok string) { v.all[tok] = struct{}{} }

func (e *Engine) tokens(text string) []string {
	terms := e.analyzer.Terms(text, "")
	if len(terms) == 0 {
		if t := strings.ToLower(strings.TrimSpace(text)); t != "" {
			return []string{t}
		}
	}
	return terms
}

func (e *Engine) addLocation(v vector, text string) {
	for _, t := range e.tokens(text) {
		tok := "loc:" + t
		v.add(tok)
		v.locations[tok] = struct{}{}
	}
}

func (e *Engine) profileVector(p *domprofile.Profile) vector {
	v := newVector()
	if p == nil {
		return v
	}
	for _, s := range p.Skills {
		toks := e.tokens(s)
		for _, t := range toks {
			v.add(t)
		}
		if len(toks) > 0 {
			v.skills[s] = toks
		}
	}
	for _, t := range p.PreferredTypes {
		v.add("type:" + string(t))
	}
	for _, l := range p.PreferredLocations {
		e.addLocation(v, l)
	}
	if p.OpenToRemote {
		v.add("remote")
	}
	return v
}

func (e *Engine) jobVector(d *index.Document) vector {
	j := d.Job()
	v := newVector()
	for _, s := range j.Skills {
		for _, t := range e.tokens(s) {
			v.add(t)
		}
	}
	for t := range d.Terms(index.FieldTitle) {
		v.add(t)
	}
	if j.Type != "" {
		v.add("type:" + string(j.Type))
	}
	e.addLocation(v, j.Location)
	if j.Remote {
		v.add("remote")
	}
	return v
}

// cosine over binary vectors: |A∩B| / sqrt(|A|·|B|).
func cosine(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for t := range a {
		if _, ok := b[t]; ok {
			common++
		}
	}
	return float64(common) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func algorithmOf(w Weights, b domrec.Breakdown) domrec.Algorithm {
	var parts []domrec.Algorithm
	if w.Content*b.Content > 0 {
		parts = append(parts, domrec.ContentBased)
	}
	if w.Collaborative*b.Collaborative > 0 {
		parts = append(parts, domrec.Collaborative)
	}
	if w.Popularity*b.Popularity > 0 {
		parts = append(parts, domrec.Trending)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return domrec.Hybrid
}

func reason(user, jv vector, b domrec.Breakdown) string {
	var parts []string
	matched := 0
	for _, toks := range user.skills {
		for _, t := range toks {
			if _, ok := jv.all[t]; ok {
				matched++
				break
			}
		}
	}
	if matched > 0 {
		parts = append(parts, fmt.Sprintf("matches %d of your skills", matched))
	}
	for tok := range user.locations {
		if _, ok := jv.locations[tok]; ok {
			parts = append(parts, "in a location you prefer")
			break
		}
	}
	if b.Collaborative > 0 {
		parts = append(parts, "popular with similar job seekers")
	}
	if b.Popularity >= trendingReasonAt {
		parts = append(parts, "trending now")
	}
	if len(parts) == 0 {
		return "recommended for you"
	}
	return strings.Join(parts, "; ")
}
