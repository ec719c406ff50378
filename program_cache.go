package memento

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProgramCacheSize bounds the cache an Owner builds when a restore
// guard is configured without an explicit ProgramCache.
const DefaultProgramCacheSize = 64

// ProgramCache stores compiled expression programs keyed by engine and
// expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers the cache restore guard programs are kept in.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *ownerConfig) {
		cfg.programCache = cache
	}
}

type lruProgramCache struct {
	programs *lru.Cache[string, any]
}

// NewLRUProgramCache returns a ProgramCache holding at most size programs,
// evicting the least recently used one first. Non-positive sizes fall back
// to DefaultProgramCacheSize.
func NewLRUProgramCache(size int) ProgramCache {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	programs, err := lru.New[string, any](size)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &lruProgramCache{programs: programs}
}

func (c *lruProgramCache) Get(key string) (any, bool) {
	return c.programs.Get(key)
}

func (c *lruProgramCache) Set(key string, value any) {
	c.programs.Add(key, value)
}

func programCacheKey(engine, expression string) string {
	return engine + ":" + expression
}

// cachedProgram returns the program stored under key, compiling and storing
// it on a miss. A nil cache compiles every time.
func cachedProgram[P any](cache ProgramCache, key string, compile func() (P, error)) (P, error) {
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		var zero P
		return zero, err
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}
