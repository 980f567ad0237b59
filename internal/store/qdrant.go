package store

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync/atomic"

	"github.com/qdrant/go-client/qdrant"

	"github.com/crateindex/crateindex/internal/errors"
)

const (
	contentField    = "content"
	metadataField   = "metadata"
	isMetadataField = "is_metadata"
	metadataPointID = uint64(0)
	defaultPort     = 6334
)

// QdrantStore is a CollectionStore backed by an external Qdrant-compatible
// vector database reached over gRPC.
type QdrantStore struct {
	client  *qdrant.Client
	nextID  atomic.Uint64
	breaker *errors.CircuitBreaker
}

// precheck denies a call while the store's circuit breaker is open, so a
// run of failures against an unreachable Qdrant instance fails fast
// instead of letting every subsequent call pay the connection timeout
// in full. Call record after the gRPC call returns to feed its outcome
// back into the breaker.
func (s *QdrantStore) precheck() error {
	if !s.breaker.Allow() {
		return errors.StoreFailed("vector store circuit open: too many recent failures", errors.ErrCircuitOpen)
	}
	return nil
}

func (s *QdrantStore) record(err error) {
	if err != nil {
		s.breaker.RecordFailure()
		return
	}
	s.breaker.RecordSuccess()
}

var _ CollectionStore = (*QdrantStore)(nil)

// NewQdrantStore connects to the vector database at dsn (e.g.
// "http://localhost:6334", optionally carrying "?api_key=..."). dsn
// normally comes from QDRANT_URL; apiKey from QDRANT_API_KEY overrides any
// api_key query parameter.
func NewQdrantStore(dsn, apiKey string) (*QdrantStore, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.StoreFailed("invalid QDRANT_URL", err)
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := defaultPort
	if p := parsed.Port(); p != "" {
		if n, convErr := strconv.Atoi(p); convErr == nil {
			port = n
		}
	}

	cfg := &qdrant.Config{Host: host, Port: port}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	} else if q := parsed.Query().Get("api_key"); q != "" {
		cfg.APIKey = q
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, errors.StoreFailed("could not create Qdrant client", err)
	}

	s := &QdrantStore{client: client, breaker: errors.NewCircuitBreaker("qdrant-store")}
	s.nextID.Store(1)
	return s, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func (s *QdrantStore) Exists(ctx context.Context, collection string) (bool, error) {
	if err := s.precheck(); err != nil {
		return false, err
	}
	exists, err := s.client.CollectionExists(ctx, collection)
	s.record(err)
	if err != nil {
		return false, errors.StoreFailed("collection existence check failed", err)
	}
	return exists, nil
}

func (s *QdrantStore) ListCollections(ctx context.Context) ([]string, error) {
	if err := s.precheck(); err != nil {
		return nil, err
	}
	names, err := s.client.ListCollections(ctx)
	s.record(err)
	if err != nil {
		return nil, errors.StoreFailed("listing collections failed", err)
	}
	return names, nil
}

func (s *QdrantStore) Ensure(ctx context.Context, collection string, vectorSize int) error {
	exists, err := s.Exists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		info, infoErr := s.client.GetCollectionInfo(ctx, collection)
		if infoErr != nil {
			return errors.StoreFailed("could not read existing collection info", infoErr)
		}
		if existing := collectionVectorSize(info); existing != 0 && existing != uint64(vectorSize) {
			return errors.StoreFailed("collection exists with a mismatched vector size", nil)
		}
		return nil
	}
	return s.createCollection(ctx, collection, vectorSize)
}

func (s *QdrantStore) Reset(ctx context.Context, collection string, vectorSize int) error {
	exists, err := s.Exists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		if err := s.precheck(); err != nil {
			return err
		}
		_, delErr := s.client.DeleteCollection(ctx, collection)
		s.record(delErr)
		if delErr != nil {
			return errors.StoreFailed("could not delete collection for reset", delErr)
		}
	}
	return s.createCollection(ctx, collection, vectorSize)
}

func (s *QdrantStore) createCollection(ctx context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return errors.StoreFailed("vector size must be positive", nil)
	}
	if err := s.precheck(); err != nil {
		return err
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	s.record(err)
	if err != nil {
		return errors.StoreFailed("could not create collection", err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, content string, vector []float32) (uint64, error) {
	if err := s.precheck(); err != nil {
		return 0, err
	}

	id := s.nextID.Add(1)
	payload := qdrant.NewValueMap(map[string]any{contentField: content})

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(id),
		Vectors: qdrant.NewVectorsDense(vector),
		Payload: payload,
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	s.record(err)
	if err != nil {
		return 0, errors.StoreFailed("upsert failed", err)
	}
	return id, nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, queryVector []float32, limit int) ([]ScoredContent, error) {
	if err := s.precheck(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	lim := uint64(limit)

	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(queryVector),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	s.record(err)
	if err != nil {
		return nil, errors.StoreFailed("search failed", err)
	}

	results := make([]ScoredContent, 0, len(hits))
	for _, hit := range hits {
		if hit.Payload == nil {
			continue
		}
		contentValue, ok := hit.Payload[contentField]
		if !ok {
			continue
		}
		results = append(results, ScoredContent{
			Score:   hit.Score,
			Content: contentValue.GetStringValue(),
		})
	}
	return results, nil
}

func (s *QdrantStore) WriteMetadata(ctx context.Context, collection string, vectorSize int, record MetadataRecord) error {
	encoded, err := encodeMetadata(record)
	if err != nil {
		return errors.StoreFailed("could not encode metadata record", err)
	}
	if err := s.precheck(); err != nil {
		return err
	}

	zeroVector := make([]float32, vectorSize)
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(metadataPointID),
		Vectors: qdrant.NewVectorsDense(zeroVector),
		Payload: qdrant.NewValueMap(encoded),
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         []*qdrant.PointStruct{point},
	})
	s.record(err)
	if err != nil {
		return errors.StoreFailed("could not write metadata sentinel", err)
	}
	return nil
}

func (s *QdrantStore) ReadMetadata(ctx context.Context, collection string) (*MetadataRecord, error) {
	if err := s.precheck(); err != nil {
		return nil, err
	}
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(metadataPointID)},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	s.record(err)
	if err != nil {
		return nil, errors.StoreFailed("could not read metadata sentinel", err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	raw, ok := points[0].Payload[metadataField]
	if !ok {
		return nil, nil
	}

	record, err := decodeMetadata(raw)
	if err != nil {
		return nil, errors.StoreFailed("could not decode metadata record", err)
	}
	return record, nil
}

// encodeMetadata round-trips record through JSON to produce the qdrant
// wire shape: {"metadata": {...}, "is_metadata": true}.
func encodeMetadata(record MetadataRecord) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, err
	}
	return map[string]any{
		metadataField:   asMap,
		isMetadataField: true,
	}, nil
}

// decodeMetadata reverses encodeMetadata given the qdrant Value stored
// under the "metadata" payload key.
func decodeMetadata(value *qdrant.Value) (*MetadataRecord, error) {
	asStruct := value.GetStructValue()
	if asStruct == nil {
		return nil, nil
	}

	fields := make(map[string]any, len(asStruct.GetFields()))
	for k, v := range asStruct.GetFields() {
		fields[k] = qdrantValueToAny(v)
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var record MetadataRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func qdrantValueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case nil:
		return nil
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(kind.StructValue.GetFields()))
		for k, fv := range kind.StructValue.GetFields() {
			out[k] = qdrantValueToAny(fv)
		}
		return out
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = qdrantValueToAny(item)
		}
		return out
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}

func collectionVectorSize(info *qdrant.CollectionInfo) uint64 {
	if info == nil || info.GetConfig() == nil {
		return 0
	}
	params := info.GetConfig().GetParams()
	if params == nil || params.GetVectorsConfig() == nil {
		return 0
	}
	if single := params.GetVectorsConfig().GetParams(); single != nil {
		return single.GetSize()
	}
	return 0
}
