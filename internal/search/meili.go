package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const locationsIndex = "mapcreator_locations"

// Meili wraps the Meilisearch client for the locations index. A background
// loop tracks reachability so the service can fall back without waiting on
// a timeout per request.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

func NewMeili(ctx context.Context, host, masterKey string) (*Meili, error) {
	m := &Meili{
		client: meili.New(host, meili.WithAPIKey(masterKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch unavailable at %s: %w", host, err)
	}
	m.healthy.Store(true)
	m.configureIndex()

	go m.healthLoop()
	return m, nil
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        locationsIndex,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", locationsIndex, err)
	}

	index := m.client.Index(locationsIndex)
	filterable := []interface{}{"userId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", locationsIndex, err)
	}
	searchable := []string{"name", "values", "type"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", locationsIndex, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			} else if err != nil && wasHealthy {
				log.Println("search: meilisearch down, serving search from memory")
			}
		}
	}
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// IndexProject replaces all of a user's records with the given set.
func (m *Meili) IndexProject(ctx context.Context, userID string, records []LocationRecord) error {
	index := m.client.Index(locationsIndex)
	if _, err := index.DeleteDocumentsByFilter(userFilter(userID)); err != nil {
		return fmt.Errorf("clear user records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	if _, err := index.AddDocuments(records, nil); err != nil {
		return fmt.Errorf("index user records: %w", err)
	}
	return nil
}

// DeleteUser removes every record owned by the user.
func (m *Meili) DeleteUser(ctx context.Context, userID string) error {
	if _, err := m.client.Index(locationsIndex).DeleteDocumentsByFilter(userFilter(userID)); err != nil {
		return fmt.Errorf("delete user records: %w", err)
	}
	return nil
}

func (m *Meili) Search(ctx context.Context, q Query) (Response, error) {
	limit := int64(q.Limit)
	if limit <= 0 {
		limit = defaultLimit
	}

	resp, err := m.client.Index(locationsIndex).Search(q.Text, &meili.SearchRequest{
		Filter:           []string{userFilter(q.UserID)},
		Limit:            limit,
		HighlightPreTag:  "<mark>",
		HighlightPostTag: "</mark>",
	})
	if err != nil {
		m.healthy.Store(false)
		return Response{}, fmt.Errorf("search locations: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return Response{Results: results, Source: "meilisearch"}, nil
}

func userFilter(userID string) string {
	return fmt.Sprintf("userId = %q", userID)
}

func hitToResult(hit meili.Hit) Result {
	res := Result{
		LocationID: decodeString(hit, "locationId"),
		Name:       decodeString(hit, "name"),
		Type:       decodeString(hit, "type"),
		ImageURL:   decodeString(hit, "imageUrl"),
	}
	if raw, ok := hit["values"]; ok {
		var values []string
		if err := json.Unmarshal(raw, &values); err == nil && len(values) > 0 {
			res.Snippet = values[0]
		}
	}
	return res
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}
