// Package search indexes project locations and answers name/value queries.
//
// Meilisearch is the primary backend. When it is unreachable an in-memory
// index answers queries instead, so search keeps working in degraded form.
package search

import (
	"strings"

	"mapcreator/api/internal/project"
)

// LocationRecord is the indexed form of a single location.
type LocationRecord struct {
	ID         string   `json:"id"` // userID_locationID, unique across users
	UserID     string   `json:"userId"`
	LocationID string   `json:"locationId"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Values     []string `json:"values"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// Query scopes a search to one user's locations.
type Query struct {
	UserID string
	Text   string
	Limit  int
}

type Result struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
}

type Response struct {
	Results []Result `json:"results"`
	Source  string   `json:"source"` // "meilisearch" or "memory"
}

const defaultLimit = 20

// RecordsFromDocument flattens a project document into indexable records.
// Custom field values are indexed by value only; field names are a per-user
// schema and searching them rarely helps.
func RecordsFromDocument(userID string, doc *project.Document) []LocationRecord {
	records := make([]LocationRecord, 0, len(doc.Locations))
	for i := range doc.Locations {
		loc := &doc.Locations[i]
		rec := LocationRecord{
			ID:         userID + "_" + loc.ID,
			UserID:     userID,
			LocationID: loc.ID,
			Name:       loc.Name,
			Type:       string(loc.Type),
			ImageURL:   doc.ImageURL(loc),
		}
		for _, field := range doc.CustomFields {
			value := strings.TrimSpace(loc.CustomData[field.ID])
			if value == "" {
				continue
			}
			rec.Values = append(rec.Values, value)
		}
		records = append(records, rec)
	}
	return records
}
