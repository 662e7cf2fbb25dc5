package assets

import (
	"context"
	"time"

	"QChat/tools/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the opaque "upload(bytes) -> URL" collaborator of the send and
// update-profile flows. The URL it returns is what gets persisted on the
// message or profile document.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, id string) (data []byte, contentType string, err error)
}

const (
	keyPrefix  = "asset:"
	urlPrefix  = "/api/assets/"
	maxAsset   = 4 << 20
	opTimeout  = 5 * time.Second
	defaultCT  = "application/octet-stream"
	ctKeySuffix = ":ct"
)

// RedisStore keeps asset bytes in Redis under asset:<uuid>, content type in a
// sibling key. Assets live as long as the documents referencing them; no TTL.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errs.ErrValidation.WithDetail("empty asset payload")
	}
	if len(data) > maxAsset {
		return "", errs.ErrValidation.WithDetail("asset exceeds size limit")
	}
	if contentType == "" {
		contentType = defaultCT
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	id := uuid.NewString()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, keyPrefix+id, data, 0)
	pipe.Set(ctx, keyPrefix+id+ctKeySuffix, contentType, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", errs.ErrUpload.Wrap(err)
	}
	return urlPrefix + id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, "", errs.ErrNotFound.WithDetail("no such asset")
	}
	if err != nil {
		return nil, "", errs.ErrStorage.Wrap(err)
	}
	ct, err := s.rdb.Get(ctx, keyPrefix+id+ctKeySuffix).Result()
	if err != nil {
		ct = defaultCT
	}
	return data, ct, nil
}
