package directory

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RelativePath is the identity of a file or folder inside the media root.
// It never starts with "/"; the media root itself is the empty path.
type RelativePath string

// Depth returns the number of path segments, with the root at depth 0.
func (p RelativePath) Depth() int {
	if p == "" {
		return 0
	}
	return strings.Count(string(p), "/") + 1
}

// Name returns the last path segment.
func (p RelativePath) Name() string {
	if p == "" {
		return ""
	}
	return path.Base(string(p))
}

// Parent returns the relative path one level up, or "" at the root.
func (p RelativePath) Parent() RelativePath {
	idx := strings.LastIndex(string(p), "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// ConfirmedPath pairs an absolute filesystem location with its media-root
// relative form. It is only constructed for paths that existed at resolve
// time; it can go stale if the filesystem changes afterwards.
type ConfirmedPath struct {
	abs string
	rel RelativePath
}

func (p ConfirmedPath) AbsolutePath() string         { return p.abs }
func (p ConfirmedPath) RelativePath() RelativePath   { return p.rel }
func (p ConfirmedPath) Name() string                 { return p.rel.Name() }
func (p ConfirmedPath) IsRoot() bool                 { return p.rel == "" }

// Append derives a child path without re-checking existence. Listings hand
// out children of directories that were just read, so the check would be
// redundant there; callers that need a fresh guarantee go through Resolve.
func (p ConfirmedPath) Append(name string) ConfirmedPath {
	rel := RelativePath(name)
	if p.rel != "" {
		rel = RelativePath(path.Join(string(p.rel), name))
	}
	return ConfirmedPath{
		abs: filepath.Join(p.abs, name),
		rel: rel,
	}
}

// ErrNotFound is returned when a requested path does not exist under the
// media root. This is the one path error that propagates to callers.
var ErrNotFound = errors.New("path not found in media root")

// Resolver maps user-relative paths onto verified locations under a single
// media root directory.
type Resolver struct {
	mediaDir string
}

func NewResolver(mediaDir string) (*Resolver, error) {
	if mediaDir == "" {
		return nil, errors.New("media dir is not set")
	}
	abs, err := filepath.Abs(mediaDir)
	if err != nil {
		return nil, fmt.Errorf("resolve media dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat media dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media dir %s is not a directory", abs)
	}
	return &Resolver{mediaDir: abs}, nil
}

// Root returns the confirmed path of the media root itself.
func (r *Resolver) Root() ConfirmedPath {
	return ConfirmedPath{abs: r.mediaDir, rel: ""}
}

// Resolve verifies that anyPath exists under the media root and returns its
// confirmed form. Accepts both root-relative paths and absolute paths that
// already live inside the media root. Returns ErrNotFound when the path
// does not exist or escapes the root.
func (r *Resolver) Resolve(anyPath string) (ConfirmedPath, error) {
	cleaned := strings.TrimPrefix(anyPath, "/")
	if strings.HasPrefix(anyPath, r.mediaDir) {
		cleaned = strings.TrimPrefix(strings.TrimPrefix(anyPath, r.mediaDir), "/")
	}
	cleaned = path.Clean(cleaned)
	if cleaned == "." {
		cleaned = ""
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return ConfirmedPath{}, ErrNotFound
	}

	abs := filepath.Join(r.mediaDir, filepath.FromSlash(cleaned))
	if _, err := os.Stat(abs); err != nil {
		return ConfirmedPath{}, ErrNotFound
	}
	return ConfirmedPath{abs: abs, rel: RelativePath(cleaned)}, nil
}

// Entry is a single child of a listed directory, re-wrapped as a confirmed
// path so deeper scans never re-derive locations from raw strings.
type Entry struct {
	Name string
	Path ConfirmedPath
}

// Listing splits the immediate children of a directory into folders and
// plain files.
type Listing struct {
	Folders []Entry
	Files   []Entry
}

// List enumerates the immediate children of dir. Read failures degrade to
// an empty listing: callers see "this node is empty" rather than an error,
// which keeps the catalog available when a folder disappears mid-scan.
func List(dir ConfirmedPath) Listing {
	entries, err := os.ReadDir(dir.AbsolutePath())
	if err != nil {
		log.Printf("Directory: read failed for %s: %v", dir.RelativePath(), err)
		return Listing{}
	}

	var listing Listing
	for _, e := range entries {
		entry := Entry{Name: e.Name(), Path: dir.Append(e.Name())}
		if e.IsDir() {
			listing.Folders = append(listing.Folders, entry)
		} else {
			listing.Files = append(listing.Files, entry)
		}
	}
	return listing
}
