package chi

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/jobmatch/internal/domain"
	domjob "github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/search/query"
	searchuc "github.com/kailas-cloud/jobmatch/internal/usecase/search"
)

// queryParam binds one form-exploded query parameter into dest.
type queryParam struct {
	name   string
	dest   any
	filter bool
}

// bindQuery binds every param, reporting filter dimensions as domain filter errors.
func bindQuery(values url.Values, params ...queryParam) error {
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, values, p.dest); err != nil {
			if p.filter {
				return domain.NewFilterError(p.name, "malformed value")
			}
			return fmt.Errorf("invalid format for parameter %s: %w", p.name, err)
		}
	}
	return nil
}

// SearchParams are the query parameters of GET /v1/search.
type SearchParams struct {
	Q               *string
	Lang            *string
	JobType         []string
	ExperienceLevel []string
	Remote          *bool
	SalaryMin       *float64
	SalaryMax       *float64
	Lat             *float64
	Lon             *float64
	RadiusKm        *float64
	Location        *string
	Category        []string
	Cursor          *string
	PageSize        *int
}

func bindSearchParams(values url.Values) (SearchParams, error) {
	var p SearchParams
	err := bindQuery(values,
		queryParam{name: "q", dest: &p.Q},
		queryParam{name: "lang", dest: &p.Lang},
		queryParam{name: "job_type", dest: &p.JobType, filter: true},
		queryParam{name: "experience_level", dest: &p.ExperienceLevel, filter: true},
		queryParam{name: "remote", dest: &p.Remote, filter: true},
		queryParam{name: "salary_min", dest: &p.SalaryMin, filter: true},
		queryParam{name: "salary_max", dest: &p.SalaryMax, filter: true},
		queryParam{name: "lat", dest: &p.Lat, filter: true},
		queryParam{name: "lon", dest: &p.Lon, filter: true},
		queryParam{name: "radius_km", dest: &p.RadiusKm, filter: true},
		queryParam{name: "location", dest: &p.Location, filter: true},
		queryParam{name: "category", dest: &p.Category, filter: true},
		queryParam{name: "cursor", dest: &p.Cursor},
		queryParam{name: "page_size", dest: &p.PageSize},
	)
	return p, err
}

func (p *SearchParams) toRequest() (*searchuc.Request, error) {
	near, err := query.NewNear(p.Lat, p.Lon, p.RadiusKm)
	if err != nil {
		return nil, err
	}
	req := &searchuc.Request{
		Query:    deref(p.Q),
		Lang:     deref(p.Lang),
		Cursor:   deref(p.Cursor),
		PageSize: deref(p.PageSize),
		Filters: query.Filters{
			Remote:     p.Remote,
			SalaryMin:  p.SalaryMin,
			SalaryMax:  p.SalaryMax,
			Location:   deref(p.Location),
			Near:       near,
			Categories: p.Category,
		},
	}
	for _, t := range p.JobType {
		req.Filters.JobTypes = append(req.Filters.JobTypes, domjob.Type(t))
	}
	for _, l := range p.ExperienceLevel {
		req.Filters.ExperienceLevels = append(req.Filters.ExperienceLevels, domjob.ExperienceLevel(l))
	}
	return req, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders the first failed rule of a validator error.
func validationMessage(err error) string {
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		return fmt.Sprintf("validation error: %s - %s", ve[0].Field(), ve[0].Tag())
	}
	return "validation error: invalid request"
}
