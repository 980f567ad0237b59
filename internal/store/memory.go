package store

import (
	"context"
	"math"
	"sync"

	"github.com/crateindex/crateindex/internal/errors"
)

type memoryCollection struct {
	vectorSize int
	points     map[uint64]memoryPoint
}

type memoryPoint struct {
	vector  []float32
	content string
	hasMeta bool
	meta    MetadataRecord
}

// MemoryStore is an in-process CollectionStore used by orchestrator tests
// in place of a live Qdrant deployment.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
	nextID      uint64
}

var _ CollectionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
		nextID:      1,
	}
}

func (s *MemoryStore) Ensure(_ context.Context, collection string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[collection]; ok {
		if c.vectorSize != vectorSize {
			return errors.StoreFailed("collection exists with a mismatched vector size", nil)
		}
		return nil
	}
	s.collections[collection] = &memoryCollection{vectorSize: vectorSize, points: make(map[uint64]memoryPoint)}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, collection string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = &memoryCollection{vectorSize: vectorSize, points: make(map[uint64]memoryPoint)}
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, content string, vector []float32) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return 0, errors.StoreFailed("collection does not exist", nil)
	}
	s.nextID++
	id := s.nextID
	c.points[id] = memoryPoint{vector: vector, content: content}
	return id, nil
}

func (s *MemoryStore) Search(_ context.Context, collection string, queryVector []float32, limit int) ([]ScoredContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, errors.StoreFailed("collection does not exist", nil)
	}

	results := make([]ScoredContent, 0, len(c.points))
	for id, p := range c.points {
		if id == metadataPointID || p.hasMeta {
			continue
		}
		results = append(results, ScoredContent{Score: cosineSimilarity(queryVector, p.vector), Content: p.content})
	}
	sortByScoreDescending(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) WriteMetadata(_ context.Context, collection string, vectorSize int, record MetadataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		c = &memoryCollection{vectorSize: vectorSize, points: make(map[uint64]memoryPoint)}
		s.collections[collection] = c
	}
	c.points[metadataPointID] = memoryPoint{
		vector:  make([]float32, vectorSize),
		hasMeta: true,
		meta:    record,
	}
	return nil
}

func (s *MemoryStore) ReadMetadata(_ context.Context, collection string) (*MetadataRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	p, ok := c.points[metadataPointID]
	if !ok || !p.hasMeta {
		return nil, nil
	}
	record := p.meta
	return &record, nil
}

func (s *MemoryStore) Exists(_ context.Context, collection string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collections[collection]
	return ok, nil
}

func (s *MemoryStore) ListCollections(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func sortByScoreDescending(results []ScoredContent) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
