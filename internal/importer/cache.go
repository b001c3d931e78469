package importer

import (
	"fmt"
	"sync"

	"github.com/mkd-neo4j/neo4j-mcp-csv/internal/csvheader"
	"github.com/zeebo/xxh3"
)

type cacheEntry struct {
	key    string
	fields []csvheader.Field
}

// headerCache memoizes parsed headers. Manifests typically import many files
// sharing one header layout.
type headerCache struct {
	mu      sync.RWMutex
	entries map[uint64]cacheEntry
}

func newHeaderCache() *headerCache {
	return &headerCache{entries: make(map[uint64]cacheEntry)}
}

func (c *headerCache) parse(p *csvheader.Parser, separator rune, header string) ([]csvheader.Field, error) {
	key := fmt.Sprintf("%s\x00%q\x00%q\x00%s", p.Grammar(), p.Quote(), separator, header)
	sum := xxh3.HashString(key)

	c.mu.RLock()
	entry, ok := c.entries[sum]
	c.mu.RUnlock()
	if ok && entry.key == key {
		return entry.fields, nil
	}

	fields, err := p.ParseHeader(header, separator)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[sum] = cacheEntry{key: key, fields: fields}
	c.mu.Unlock()
	return fields, nil
}

func (c *headerCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
