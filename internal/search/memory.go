package search

import (
	"strings"
	"sync"
)

// Memory is the fallback index: per-user records held in a map and matched
// by case-insensitive substring. Good enough for the handful of locations a
// typical project holds.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]LocationRecord // keyed by user id
}

func NewMemory() *Memory {
	return &Memory{records: map[string][]LocationRecord{}}
}

// IndexProject replaces the user's records with the given set.
func (m *Memory) IndexProject(userID string, records []LocationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(records) == 0 {
		delete(m.records, userID)
		return
	}
	m.records[userID] = records
}

func (m *Memory) DeleteUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
}

func (m *Memory) Search(q Query) Response {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := []Result{}
	for _, rec := range m.records[q.UserID] {
		if len(results) >= limit {
			break
		}
		snippet, ok := match(rec, needle)
		if !ok {
			continue
		}
		results = append(results, Result{
			LocationID: rec.LocationID,
			Name:       rec.Name,
			Type:       rec.Type,
			ImageURL:   rec.ImageURL,
			Snippet:    snippet,
		})
	}
	return Response{Results: results, Source: "memory"}
}

// match reports whether the record matches and which value matched, if any.
// An empty query matches everything.
func match(rec LocationRecord, needle string) (string, bool) {
	if needle == "" {
		return "", true
	}
	if strings.Contains(strings.ToLower(rec.Name), needle) {
		return "", true
	}
	for _, value := range rec.Values {
		if strings.Contains(strings.ToLower(value), needle) {
			return value, true
		}
	}
	return "", false
}
