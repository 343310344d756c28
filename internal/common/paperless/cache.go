// internal/common/paperless/cache.go
package paperless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paperless-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Source is the part of Client the cache reads through.
type Source interface {
	GetCorrespondent(ctx context.Context, id *int64) (*Correspondent, error)
	GetDocumentType(ctx context.Context, id *int64) (*DocumentType, error)
}

// CachedLookup resolves correspondent and document type names through a
// Redis cache.
type CachedLookup struct {
	source Source
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLookup(source Source, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedLookup {
	return &CachedLookup{source: source, rdb: rdb, ttl: ttl, logger: log}
}

func correspondentKey(id int64) string { return fmt.Sprintf("paperless:correspondent:%d", id) }
func documentTypeKey(id int64) string  { return fmt.Sprintf("paperless:document_type:%d", id) }

// CorrespondentName returns "" when id is nil or unknown to Paperless.
func (l *CachedLookup) CorrespondentName(ctx context.Context, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	return l.name(ctx, correspondentKey(*id), func() (string, error) {
		c, err := l.source.GetCorrespondent(ctx, id)
		if err != nil || c == nil {
			return "", err
		}
		return c.Name, nil
	})
}

// DocumentTypeName returns "" when id is nil or unknown to Paperless.
func (l *CachedLookup) DocumentTypeName(ctx context.Context, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	return l.name(ctx, documentTypeKey(*id), func() (string, error) {
		t, err := l.source.GetDocumentType(ctx, id)
		if err != nil || t == nil {
			return "", err
		}
		return t.Name, nil
	})
}

func (l *CachedLookup) name(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	cached, err := l.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		l.logger.Warn("paperless cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	name, err := fetch()
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if name != "" {
		if err := l.rdb.Set(ctx, key, name, l.ttl).Err(); err != nil {
			l.logger.Warn("paperless cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return name, nil
}
