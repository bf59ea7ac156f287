package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
)

// Filter limits.
const (
	MaxValuesPerDimension = 16
	MaxLocationLength     = 200
)

// Near restricts results to jobs within RadiusKm of Center.
type Near struct {
	Center   geo.Point
	RadiusKm float64
}

// NewNear assembles a radius filter from optional request parameters.
// All three must be present together; nil is returned when none are.
func NewNear(lat, lon, radiusKm *float64) (*Near, error) {
	if lat == nil && lon == nil && radiusKm == nil {
		return nil, nil
	}
	if radiusKm == nil {
		return nil, domain.NewFilterError("radius_km", "required with lat/lon")
	}
	if lat == nil || lon == nil {
		return nil, domain.NewFilterError("radius_km", "requires both lat and lon")
	}
	n := &Near{Center: geo.Point{Latitude: *lat, Longitude: *lon}, RadiusKm: *radiusKm}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Near) validate() error {
	if !geo.ValidateCoordinates(n.Center.Latitude, n.Center.Longitude) {
		return domain.NewFilterError("lat/lon", "coordinates out of range")
	}
	if n.RadiusKm <= 0 {
		return domain.NewFilterError("radius_km", "must be positive")
	}
	if n.RadiusKm > geo.MaxRadiusKm {
		return domain.NewFilterError("radius_km", "exceeds maximum radius")
	}
	return nil
}

// Filters is a conjunction of dimensions. Values inside one dimension are disjunctive.
// A zero-value dimension does not restrict.
type Filters struct {
	JobTypes         []job.Type
	ExperienceLevels []job.ExperienceLevel
	Remote           *bool
	SalaryMin        *float64
	SalaryMax        *float64
	Location         string
	Near             *Near
	Categories       []string
}

// Validate rejects malformed or contradictory filters as a whole.
func (f *Filters) Validate() error {
	if len(f.JobTypes) > MaxValuesPerDimension {
		return domain.NewFilterError("job_type", "too many values")
	}
	for _, t := range f.JobTypes {
		if !t.IsValid() {
			return domain.NewFilterError("job_type", "unknown value "+strconv.Quote(string(t)))
		}
	}
	if len(f.ExperienceLevels) > MaxValuesPerDimension {
		return domain.NewFilterError("experience_level", "too many values")
	}
	for _, l := range f.ExperienceLevels {
		if !l.IsValid() {
			return domain.NewFilterError("experience_level", "unknown value "+strconv.Quote(string(l)))
		}
	}
	if f.SalaryMin != nil && *f.SalaryMin < 0 {
		return domain.NewFilterError("salary_min", "must not be negative")
	}
	if f.SalaryMax != nil && *f.SalaryMax < 0 {
		return domain.NewFilterError("salary_max", "must not be negative")
	}
	if f.SalaryMin != nil && f.SalaryMax != nil && *f.SalaryMin > *f.SalaryMax {
		return domain.NewFilterError("salary_min", "exceeds salary_max")
	}
	if len(f.Location) > MaxLocationLength {
		return domain.NewFilterError("location", "too long")
	}
	if f.Near != nil {
		if err := f.Near.validate(); err != nil {
			return err
		}
	}
	if len(f.Categories) > MaxValuesPerDimension {
		return domain.NewFilterError("category", "too many values")
	}
	for _, c := range f.Categories {
		if c == "" {
			return domain.NewFilterError("category", "empty value")
		}
	}
	return nil
}

// Match reports whether j passes every dimension.
func (f *Filters) Match(j *job.Job) bool {
	if len(f.JobTypes) > 0 && !contains(f.JobTypes, j.Type) {
		return false
	}
	if len(f.ExperienceLevels) > 0 && !contains(f.ExperienceLevels, j.Experience) {
		return false
	}
	if f.Remote != nil && j.Remote != *f.Remote {
		return false
	}
	if !f.matchSalary(j) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(j.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Near != nil {
		if j.Latitude == nil || j.Longitude == nil {
			return false
		}
		p := geo.Point{Latitude: *j.Latitude, Longitude: *j.Longitude}
		if !geo.Within(f.Near.Center, p, f.Near.RadiusKm) {
			return false
		}
	}
	if len(f.Categories) > 0 && !contains(f.Categories, j.CategoryID) {
		return false
	}
	return true
}

// matchSalary checks that the job's advertised range overlaps the requested one.
// Jobs without any salary information never match a salary filter.
func (f *Filters) matchSalary(j *job.Job) bool {
	if f.SalaryMin == nil && f.SalaryMax == nil {
		return true
	}
	if j.SalaryMin == nil && j.SalaryMax == nil {
		return false
	}
	if f.SalaryMin != nil {
		top := j.SalaryMax
		if top == nil {
			top = j.SalaryMin
		}
		if *top < *f.SalaryMin {
			return false
		}
	}
	if f.SalaryMax != nil {
		bottom := j.SalaryMin
		if bottom == nil {
			bottom = j.SalaryMax
		}
		if *bottom > *f.SalaryMax {
			return false
		}
	}
	return true
}

// Fingerprint is a canonical rendering: equal filter sets produce equal strings
// regardless of value order or duplicates.
func (f *Filters) Fingerprint() string {
	var b strings.Builder
	writeSet(&b, "t", stringsOf(f.JobTypes))
	writeSet(&b, "x", stringsOf(f.ExperienceLevels))
	if f.Remote != nil {
		b.WriteString("r=" + strconv.FormatBool(*f.Remote) + ";")
	}
	writeFloat(&b, "smin", f.SalaryMin)
	writeFloat(&b, "smax", f.SalaryMax)
	if f.Location != "" {
		b.WriteString("l=" + strconv.Quote(strings.ToLower(f.Location)) + ";")
	}
	if f.Near != nil {
		b.WriteString("n=" + fmtFloat(f.Near.Center.Latitude) + "," +
			fmtFloat(f.Near.Center.Longitude) + "," + fmtFloat(f.Near.RadiusKm) + ";")
	}
	writeSet(&b, "c", f.Categories)
	return b.String()
}

func contains[T comparable](vals []T, v T) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}

func stringsOf[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

func writeSet(b *strings.Builder, name string, vals []string) {
	if len(vals) == 0 {
		return
	}
	sorted := append([]string(nil), vals...)
	sort.Strings(sorted)
	b.WriteString(name + "=")
	prev := ""
	for i, v := range sorted {
		if i > 0 && v == prev {
			continue
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(v))
		prev = v
	}
	b.WriteByte(';')
}

func writeFloat(b *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	b.WriteString(name + "=" + fmtFloat(*v) + ";")
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
