package search

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/peterbourgon/diskv"

	"github.com/hscells/strata/learning"
)

// CacheMissError indicates a candidate score was not found in a cache.
var CacheMissError = errors.New("cache miss error")

// ScoreCacher models a way to cache (either persistent or not) the validation
// scores of evaluated candidates, so re-running an experiment can skip
// fitting candidates it has already seen. Implementations must be safe for
// concurrent use; candidate evaluations run in parallel.
type ScoreCacher interface {
	Get(key string) (float64, error)
	Set(key string, score float64) error
}

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// candidateKey computes a stable cache key for one candidate evaluation:
// the hyper-parameters, the identity of the training data, and the measure.
func candidateKey(params learning.Params, fingerprint uint64, measure string) string {
	h := fnv.New64a()
	h.Write([]byte(params.String()))
	h.Write([]byte(measure))
	var b [8]byte
	for i := uint(0); i < 8; i++ {
		b[i] = byte(fingerprint >> (8 * i))
	}
	h.Write(b[:])
	return fmt.Sprintf("%x", h.Sum64())
}

type mapScoreCache struct {
	mu sync.Mutex
	m  map[string]float64
}

func (c *mapScoreCache) Get(key string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.m[key]; ok {
		return s, nil
	}
	return 0, CacheMissError
}

func (c *mapScoreCache) Set(key string, score float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = score
	return nil
}

// NewMapScoreCache creates a score cache out of a regular go map.
func NewMapScoreCache() ScoreCacher {
	return &mapScoreCache{m: make(map[string]float64)}
}

type lruScoreCache struct {
	cache *lru.Cache
}

func (c lruScoreCache) Get(key string) (float64, error) {
	if s, ok := c.cache.Get(key); ok {
		return s.(float64), nil
	}
	return 0, CacheMissError
}

func (c lruScoreCache) Set(key string, score float64) error {
	c.cache.Add(key, score)
	return nil
}

// NewLRUScoreCache creates a bounded in-memory score cache that evicts the
// least recently used candidates.
func NewLRUScoreCache(size int) (ScoreCacher, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return lruScoreCache{cache: cache}, nil
}

type diskvScoreCache struct {
	*diskv.Diskv
}

func (d diskvScoreCache) Get(key string) (float64, error) {
	b, err := d.Read(key)
	if err != nil {
		return 0, CacheMissError
	}
	var score float64
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&score); err != nil {
		return 0, err
	}
	return score, nil
}

func (d diskvScoreCache) Set(key string, score float64) error {
	var buff bytes.Buffer
	if err := gob.NewEncoder(&buff).Encode(score); err != nil {
		return err
	}
	return d.Write(key, buff.Bytes())
}

// NewDiskScoreCache creates a new on-disk score cache rooted at the given
// path, so candidate scores survive across experiment runs.
func NewDiskScoreCache(path string) ScoreCacher {
	return diskvScoreCache{diskv.New(diskv.Options{
		BasePath:     path,
		Transform:    BlockTransform(8),
		CacheSizeMax: 4096 * 1024,
	})}
}
