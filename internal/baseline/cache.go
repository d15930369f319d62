package baseline

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/molforge/qmdelta/internal/chem"
	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
)

// ---------------------------------------------------------------------------
// Redis-backed result cache
// ---------------------------------------------------------------------------

// RedisConfig locates the optional baseline result cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// KV is the slice of the redis command surface the cache uses. Any
// redis.Cmdable satisfies it.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd
}

// CachedProvider memoizes baseline results in redis, keyed by a geometry
// hash, so repeated predictions over the same conformers skip the external
// process. Cache failures degrade to a direct computation, never to an
// error.
type CachedProvider struct {
	inner   Provider
	rdb     KV
	ttl     time.Duration
	log     logging.Logger
	metrics metrics.Metrics
}

// NewCachedProvider wraps inner with a redis cache.
func NewCachedProvider(inner Provider, rdb KV, ttl time.Duration, log logging.Logger, m metrics.Metrics) *CachedProvider {
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, log: log, metrics: m}
}

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (c *CachedProvider) Compute(ctx context.Context, mol chem.Molecule, optimize bool) (*Result, error) {
	key := cacheKey(mol, optimize)

	if payload, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var res Result
		if err := json.Unmarshal(payload, &res); err == nil {
			c.metrics.RecordBaseline(0, true)
			return &res, nil
		}
		c.log.Warn("discarding undecodable baseline cache entry", logging.String("key", key))
	} else if err != redis.Nil {
		c.log.Warn("baseline cache read failed", logging.Err(err))
	}

	res, err := c.inner.Compute(ctx, mol, optimize)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(res); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("baseline cache write failed", logging.Err(err))
		}
	}
	return res, nil
}

// cacheKey hashes the atomic numbers, coordinates, and the optimize flag.
// Two molecules with identical geometry share an entry.
func cacheKey(mol chem.Molecule, optimize bool) string {
	h := sha256.New()
	buf := make([]byte, 8)
	coords := mol.Coordinates()
	for i, z := range mol.AtomicNumbers() {
		binary.LittleEndian.PutUint64(buf, uint64(z))
		h.Write(buf)
		for _, v := range coords[i] {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			h.Write(buf)
		}
	}
	if optimize {
		h.Write([]byte{1})
	}
	return "qmdelta:baseline:" + hex.EncodeToString(h.Sum(nil))
}
