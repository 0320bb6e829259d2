package catalog

import (
	"time"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// ClassifyFile maps a file inside a library to its typed record, or nil
// when the extension is not a recognized media kind. Both outcomes are
// cached, so repeated listings of large photo dumps never re-derive.
func (c *Catalog) ClassifyFile(path directory.ConfirmedPath) *LibraryFile {
	rel := path.RelativePath()

	c.mu.RLock()
	cached, ok := c.files[rel]
	c.mu.RUnlock()
	if ok {
		return cloneFile(cached)
	}

	file := computeFile(path)
	c.mu.Lock()
	c.files[rel] = file
	c.mu.Unlock()
	return cloneFile(file)
}

func computeFile(path directory.ConfirmedPath) *LibraryFile {
	name := path.Name()
	kind, ok := fileKindByExtension[extensionOf(name)]
	if !ok {
		return nil
	}
	file := &LibraryFile{
		Type:         FileItemType,
		FileType:     kind,
		FileName:     name,
		RelativePath: path.RelativePath(),
		ListName:     RemoveExtensions(name),
		SortKey:      name,
		TakenAt:      TakenAt(name),
	}
	// Timestamped photos sort by capture time, everything else by name.
	if file.TakenAt != nil {
		file.SortKey = file.TakenAt.UTC().Format(time.RFC3339) + "_" + name
	}
	return file
}

func cloneFile(file *LibraryFile) *LibraryFile {
	if file == nil {
		return nil
	}
	copied := *file
	return &copied
}
