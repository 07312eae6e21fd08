package search

import (
	"context"
	"log"
	"time"

	"mapcreator/api/internal/project"
)

// Service fronts the two backends. The memory index is always kept current
// so a Meilisearch outage degrades search instead of breaking it.
type Service struct {
	meili  *Meili // nil when Meilisearch is not configured
	memory *Memory
}

func NewService(meili *Meili) *Service {
	return &Service{meili: meili, memory: NewMemory()}
}

// IndexProject refreshes the user's records from the document. The memory
// index updates synchronously; Meilisearch indexing runs in the background
// because it sits on the save path and must not delay persistence.
func (s *Service) IndexProject(userID string, doc *project.Document) {
	records := RecordsFromDocument(userID, doc)
	s.memory.IndexProject(userID, records)

	if s.meili == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.meili.IndexProject(ctx, userID, records); err != nil {
			log.Printf("search: index project for user %s: %v", userID, err)
		}
	}()
}

func (s *Service) DeleteUser(userID string) {
	s.memory.DeleteUser(userID)

	if s.meili == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.meili.DeleteUser(ctx, userID); err != nil {
			log.Printf("search: delete records for user %s: %v", userID, err)
		}
	}()
}

func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		resp, err := s.meili.Search(ctx, q)
		if err == nil {
			return resp
		}
		log.Printf("search: meilisearch query failed, using memory index: %v", err)
	}
	return s.memory.Search(q)
}

func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}
