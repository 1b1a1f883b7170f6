// Package cache suppresses duplicate portal fetches across runs by keeping
// successfully fetched records for a configurable TTL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/darion/resultfetch/config"
	"github.com/darion/resultfetch/internal/model"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RecordCache interface {
	Get(req model.FetchRequest) (*model.StudentRecord, bool)
	Put(req model.FetchRequest, record *model.StudentRecord)
	Close()
}

// New builds the configured cache backend. It returns nil when caching is
// disabled; callers treat a nil cache as a no-op.
func New(cfg *config.CacheConfig, log *slog.Logger) RecordCache {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	switch cfg.Backend {
	case "memcached":
		return NewMemcachedCache(cfg, log)
	default:
		return NewMemoryCache(cfg, log)
	}
}

func recordKey(req model.FetchRequest) string {
	hash := sha256.New()
	hash.Write([]byte(req.PIN + "|" + req.Semester))
	return hex.EncodeToString(hash.Sum(nil))
}
