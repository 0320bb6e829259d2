package catalog

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// FlatTree flattens a subtree into one list of items and one list of leaf
// files, shallow records only. Feed generation consumes this, so neither
// details nor remote metadata are joined; files pass through the file
// cache, unrecognized extensions are skipped. Fan-out across sibling
// folders is bounded by the scan concurrency limit; both results are
// ordered by relative path.
func (c *Catalog) FlatTree(ctx context.Context, root directory.ConfirmedPath) ([]Item, []*LibraryFile, error) {
	var mu sync.Mutex
	var items []Item
	var files []*LibraryFile

	group, groupCtx := errgroup.WithContext(ctx)
	var walk func(path directory.ConfirmedPath)
	walk = func(path directory.ConfirmedPath) {
		group.Go(func() error {
			if err := c.fanout.Acquire(groupCtx, 1); err != nil {
				return err
			}
			item, err := c.Classify(groupCtx, path, false, false)
			c.fanout.Release(1)
			if err != nil {
				return err
			}
			listing := directory.List(path)
			var leafFiles []*LibraryFile
			for _, entry := range listing.Files {
				if file := c.ClassifyFile(entry.Path); file != nil {
					leafFiles = append(leafFiles, file)
				}
			}
			mu.Lock()
			items = append(items, item)
			files = append(files, leafFiles...)
			mu.Unlock()
			for _, folder := range listing.Folders {
				walk(folder.Path)
			}
			return nil
		})
	}
	walk(root)
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Base().RelativePath < items[j].Base().RelativePath
	})
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return items, files, nil
}
