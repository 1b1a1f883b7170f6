package cache

import (
	"log/slog"
	"time"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
	gocache "github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// MemoryCache keeps records in-process. It survives nothing, but spares
// the portal repeated fetches within one long-lived invocation.
type MemoryCache struct {
	store *gocache.Cache
	log   *slog.Logger
}

func NewMemoryCache(cacheConfig *config.CacheConfig, log *slog.Logger) *MemoryCache {
	ttl := cacheConfig.TtlForRecord
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryCache{
		store: gocache.New(ttl, cleanupInterval),
		log:   log,
	}
}

func (c *MemoryCache) Get(req model.FetchRequest) (*model.StudentRecord, bool) {
	v, ok := c.store.Get(recordKey(req))
	if !ok {
		return nil, false
	}
	record, ok := v.(*model.StudentRecord)
	if !ok {
		return nil, false
	}
	return record, true
}

func (c *MemoryCache) Put(req model.FetchRequest, record *model.StudentRecord) {
	c.store.SetDefault(recordKey(req), record)
	c.log.Debug("record saved to cache.", slog.String("pin", req.PIN))
}

func (c *MemoryCache) Close() {
	c.store.Flush()
}
