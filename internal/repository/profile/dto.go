package profile

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/domain/geo"
	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	domprofile "github.com/kailas-cloud/jobmatch/internal/domain/profile"
)

const (
	fieldSkills    = "skills"
	fieldLocations = "locations"
	fieldTypes     = "types"
	fieldRemote    = "remote"
	fieldLat       = "lat"
	fieldLon       = "lon"
	fieldActive    = "active"
	fieldUpdatedAt = "updated_at"
)

// buildHashFields converts a profile into a flat map for HSET. Every field is
// always written so an update clears values dropped from the snapshot.
func buildHashFields(p *domprofile.Profile) map[string]string {
	types := make([]string, len(p.PreferredTypes))
	for i, t := range p.PreferredTypes {
		types[i] = string(t)
	}
	m := map[string]string{
		fieldSkills:    encodeList(p.Skills),
		fieldLocations: encodeList(p.PreferredLocations),
		fieldTypes:     encodeList(types),
		fieldRemote:    strconv.FormatBool(p.OpenToRemote),
		fieldLat:       "",
		fieldLon:       "",
		fieldActive:    strconv.FormatBool(p.Active),
		fieldUpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.Location != nil {
		m[fieldLat] = strconv.FormatFloat(p.Location.Latitude, 'f', -1, 64)
		m[fieldLon] = strconv.FormatFloat(p.Location.Longitude, 'f', -1, 64)
	}
	return m
}

// parseHashFields converts a flat hash map back into a profile.
// Unparseable scalar fields fall back to their zero value.
func parseHashFields(userID string, m map[string]string) *domprofile.Profile {
	p := &domprofile.Profile{
		UserID:             userID,
		Skills:             decodeList(m[fieldSkills]),
		PreferredLocations: decodeList(m[fieldLocations]),
	}
	for _, t := range decodeList(m[fieldTypes]) {
		p.PreferredTypes = append(p.PreferredTypes, job.Type(t))
	}
	p.OpenToRemote, _ = strconv.ParseBool(m[fieldRemote])
	p.Active, _ = strconv.ParseBool(m[fieldActive])
	if ts, err := time.Parse(time.RFC3339Nano, m[fieldUpdatedAt]); err == nil {
		p.UpdatedAt = ts
	}
	lat, errLat := strconv.ParseFloat(m[fieldLat], 64)
	lon, errLon := strconv.ParseFloat(m[fieldLon], 64)
	if errLat == nil && errLon == nil {
		p.Location = &geo.Point{Latitude: lat, Longitude: lon}
	}
	return p
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}
