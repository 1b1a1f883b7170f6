package cache

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
)

type MemcachedCache struct {
	client *memcache.Client
	cfg    *config.CacheConfig
	log    *slog.Logger
}

func NewMemcachedCache(cacheConfig *config.CacheConfig, log *slog.Logger) *MemcachedCache {
	log.Info("connecting to memcached...")
	ss := new(memcache.ServerList)
	servers := strings.Split(cacheConfig.Servers, ",")
	err := ss.SetServers(servers...)
	if err != nil {
		log.Error("failed to set memcached servers.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	c := &MemcachedCache{
		client: memcache.NewFromSelector(ss),
		cfg:    cacheConfig,
		log:    log,
	}
	c.log.Info("pinging the memcached.")
	err = c.client.Ping()
	if err != nil {
		log.Error("connection to the memcached is failed.", slog.String("err", err.Error()))
		os.Exit(1)
	}
	c.log.Info("connected to memcached!")

	return c
}

func (mc *MemcachedCache) Get(req model.FetchRequest) (*model.StudentRecord, bool) {
	item, err := mc.client.Get(recordKey(req))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			mc.log.Warn("failed to read record from cache.", slog.String("pin", req.PIN),
				slog.String("err", err.Error()))
		}
		return nil, false
	}
	var record model.StudentRecord
	if err := json.Unmarshal(item.Value, &record); err != nil {
		mc.log.Warn("failed to decode cached record.", slog.String("pin", req.PIN),
			slog.String("err", err.Error()))
		return nil, false
	}

	return &record, true
}

func (mc *MemcachedCache) Put(req model.FetchRequest, record *model.StudentRecord) {
	byteValue, err := json.Marshal(record)
	if err != nil {
		mc.log.Error("failed to encode record for cache.", slog.String("pin", req.PIN),
			slog.String("err", err.Error()))
		return
	}
	item := &memcache.Item{
		Key:        recordKey(req),
		Value:      byteValue,
		Expiration: int32((mc.cfg.TtlForRecord).Seconds()),
	}
	if err := mc.client.Set(item); err != nil {
		mc.log.Error("failed to save record to cache.", slog.String("pin", req.PIN),
			slog.String("err", err.Error()))
		return
	}
	mc.log.Debug("record saved to cache.", slog.String("pin", req.PIN))
}

func (mc *MemcachedCache) Close() {
	mc.log.Info("closing memcached connection.")
	err := mc.client.Close()
	if err != nil {
		mc.log.Error("failed to close memcached connection.", slog.String("err", err.Error()))
	}
}
