package weights

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/molforge/qmdelta/internal/logging"
	"github.com/molforge/qmdelta/internal/metrics"
	"github.com/molforge/qmdelta/pkg/errors"
)

// ---------------------------------------------------------------------------
// Caching layer
// ---------------------------------------------------------------------------

// Cache keeps resolved weight blobs in memory so repeated calculator
// constructions do not re-read the store. When a watched weight file is
// written or removed, the corresponding entry is dropped and the next
// Resolve reloads it.
type Cache struct {
	inner   Store
	log     logging.Logger
	metrics metrics.Metrics

	mu    sync.RWMutex
	blobs map[string][]byte

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewCache wraps inner with an in-memory blob cache.
func NewCache(inner Store, log logging.Logger, m metrics.Metrics) *Cache {
	return &Cache{
		inner:   inner,
		log:     log,
		metrics: m,
		blobs:   make(map[string][]byte),
	}
}

// Resolve serves from memory when possible, falling through to the inner
// store on a miss.
func (c *Cache) Resolve(ctx context.Context, id string) ([]byte, error) {
	c.mu.RLock()
	blob, ok := c.blobs[id]
	c.mu.RUnlock()
	if ok {
		c.metrics.RecordWeightResolve(id, true)
		return blob, nil
	}

	blob, err := c.inner.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordWeightResolve(id, false)

	c.mu.Lock()
	c.blobs[id] = blob
	c.mu.Unlock()
	return blob, nil
}

// Invalidate drops the cached blob for id, if any.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.blobs, id)
	c.mu.Unlock()
}

// Watch starts filesystem-driven invalidation over a weight directory.
// Write, create, remove, and rename events on *.json files evict the
// matching identifier.
func (c *Cache) Watch(dir string) error {
	if c.watcher != nil {
		return errors.New(errors.CodeConflict, "cache is already watching a directory")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "creating weight watcher")
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return errors.Wrap(err, errors.CodeIO, "watching weight directory "+dir)
	}
	c.watcher = w
	c.done = make(chan struct{})
	go c.watchLoop()
	return nil
}

func (c *Cache) watchLoop() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			id := strings.TrimSuffix(name, ".json")
			c.Invalidate(id)
			c.log.Info("weight cache entry invalidated",
				logging.String("model", id),
				logging.String("event", ev.Op.String()),
			)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn("weight watcher error", logging.Err(err))
		case <-c.done:
			return
		}
	}
}

// Close stops the watcher, if one was started.
func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.done)
	err := c.watcher.Close()
	c.watcher = nil
	return err
}
