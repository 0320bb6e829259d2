package catalog

import (
	"context"
	"log"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// baseItem serves the classification from the item cache, computing on
// miss. Libraries, folders and collections are cheap to derive and change
// shape whenever children appear, so they are computed fresh every time.
func (c *Catalog) baseItem(ctx context.Context, path directory.ConfirmedPath) (Item, error) {
	rel := path.RelativePath()

	c.mu.RLock()
	cached, ok := c.items[rel]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.itemFlight.Do(string(rel), func() (interface{}, error) {
		item, err := c.computeItem(ctx, path)
		if err != nil {
			return nil, err
		}
		if itemCacheable(item) {
			c.mu.Lock()
			c.items[rel] = item
			c.mu.Unlock()
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Item), nil
}

func itemCacheable(item Item) bool {
	switch item.Base().Type {
	case ItemLibrary, ItemFolder, ItemCollection:
		return false
	}
	return true
}

func detailCacheable(item Item) bool {
	switch item.(type) {
	case *Series, *Movie, *Album, *Audiobook, *Collection:
		return true
	}
	return false
}

// Reload recomputes one path and swaps the fresh result into the caches.
// The old entries stay live until the recompute succeeds, so a reload that
// fails midway never leaves a hole. Invalidation does not cascade to
// parents or children.
func (c *Catalog) Reload(ctx context.Context, path directory.ConfirmedPath) (Item, error) {
	rel := path.RelativePath()
	log.Printf("Catalog: reloading %s", rel)

	item, err := c.computeItem(ctx, path)
	if err != nil {
		return nil, err
	}
	var detail *itemDetail
	if detailCacheable(item) {
		detail, err = c.computeDetail(ctx, path, item)
		if err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	if itemCacheable(item) {
		c.items[rel] = item
	} else {
		delete(c.items, rel)
	}
	if detail != nil {
		c.details[rel] = detail
	} else {
		delete(c.details, rel)
	}
	delete(c.files, rel)
	c.mu.Unlock()
	return item.clone(), nil
}

// Invalidate drops the cached entries for one path without recomputing.
func (c *Catalog) Invalidate(path directory.ConfirmedPath) {
	rel := path.RelativePath()
	c.mu.Lock()
	delete(c.items, rel)
	delete(c.details, rel)
	delete(c.files, rel)
	c.mu.Unlock()
}

// EmptyCaches drops everything. The next request rebuilds from disk.
func (c *Catalog) EmptyCaches() {
	c.mu.Lock()
	dropped := len(c.items) + len(c.details) + len(c.files)
	c.items = make(map[directory.RelativePath]Item)
	c.details = make(map[directory.RelativePath]*itemDetail)
	c.files = make(map[directory.RelativePath]*LibraryFile)
	c.mu.Unlock()
	log.Printf("Catalog: emptied caches (%d entries dropped)", dropped)
}

// CacheSizes reports the entry count of each cache, for the status
// endpoint.
func (c *Catalog) CacheSizes() (items, details, files int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items), len(c.details), len(c.files)
}
