package objects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps records as JSON documents under "record:{type}:{id}"
// keys. It backs deployments where the engine shares record state with other
// services through Redis instead of owning a database.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(objectType, id string) string {
	return fmt.Sprintf("record:%s:%s", objectType, id)
}

func (s *RedisStore) Create(ctx context.Context, objectType string, data map[string]any) (map[string]any, error) {
	record := make(map[string]any, len(data)+1)
	for k, v := range data {
		record[k] = v
	}

	id, _ := record["id"].(string)
	if id == "" {
		id = uuid.New().String()
		record["id"] = id
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", objectType, err)
	}

	if err := s.client.Set(ctx, recordKey(objectType, id), encoded, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to store %s record: %w", objectType, err)
	}

	return record, nil
}

func (s *RedisStore) Update(ctx context.Context, objectType, id string, data map[string]any) (map[string]any, error) {
	key := recordKey(objectType, id)

	existing, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, objectType, id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load %s record: %w", objectType, err)
	}

	var record map[string]any
	if err := json.Unmarshal(existing, &record); err != nil {
		return nil, fmt.Errorf("failed to decode %s record: %w", objectType, err)
	}

	for k, v := range data {
		record[k] = v
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s record: %w", objectType, err)
	}

	if err := s.client.Set(ctx, key, encoded, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to store %s record: %w", objectType, err)
	}

	return record, nil
}
