package catalog

import (
	"context"
	"fmt"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// PlayableFor resolves an arbitrary path to the item that owns it and the
// thing the player should open. Ancestors are classified deepest first;
// the first one that is not a plain folder becomes the parent and is
// searched for a playable whose relative path matches the target. A path
// that classifies as an album or audiobook is playable in its own right.
// A nil playable with a non-nil parent is a valid result: the path lives
// under a classified item but nothing there can be played.
func (c *Catalog) PlayableFor(ctx context.Context, target directory.ConfirmedPath) (Item, Playable, error) {
	rel := target.RelativePath()

	var parent Item
	for _, ancestor := range c.ancestorsOf(target) {
		item, err := c.Classify(ctx, ancestor, true, false)
		if err != nil {
			return nil, nil, err
		}
		if item.Base().Type == ItemFolder {
			continue
		}
		parent = item
		break
	}

	var playable Playable
	if parent != nil {
		playable = findPlayable(parent, rel)
	}
	if playable == nil {
		item, err := c.Classify(ctx, target, true, false)
		if err != nil {
			return nil, nil, err
		}
		switch owned := item.(type) {
		case *Album:
			playable = owned
		case *Audiobook:
			playable = owned
		}
	}
	return parent, playable, nil
}

// NextEpisode returns the episode file following the given one in its
// series, flattening season order, or nil when the given file is the last.
// Paths that resolve to any other playable kind are an error.
func (c *Catalog) NextEpisode(ctx context.Context, target directory.ConfirmedPath) (*EpisodeFile, error) {
	parent, playable, err := c.PlayableFor(ctx, target)
	if err != nil {
		return nil, err
	}
	current, ok := playable.(*EpisodeFile)
	if !ok {
		return nil, fmt.Errorf("%s is not an episode file", target.RelativePath())
	}
	series, ok := parent.(*Series)
	if !ok {
		return nil, fmt.Errorf("no series above %s", target.RelativePath())
	}

	var ordered []*EpisodeFile
	for _, season := range series.Seasons {
		ordered = append(ordered, season.EpisodeFiles...)
	}
	for i, episodeFile := range ordered {
		if episodeFile.RelativePath != current.RelativePath {
			continue
		}
		if i+1 < len(ordered) {
			return ordered[i+1], nil
		}
		return nil, nil
	}
	return nil, nil
}

// ancestorsOf lists the proper ancestors of a path, deepest first, stopping
// short of the media root.
func (c *Catalog) ancestorsOf(target directory.ConfirmedPath) []directory.ConfirmedPath {
	var ancestors []directory.ConfirmedPath
	rel := target.RelativePath().Parent()
	for rel != "" {
		ancestor, err := c.resolver.Resolve(string(rel))
		if err != nil {
			break
		}
		ancestors = append(ancestors, ancestor)
		rel = rel.Parent()
	}
	return ancestors
}

// findPlayable searches one classified item for the playable backed by the
// given relative path.
func findPlayable(item Item, rel directory.RelativePath) Playable {
	switch owner := item.(type) {
	case *Movie:
		if extra := findExtra(owner.Extras, rel); extra != nil {
			return extra
		}
		if owner.Main != nil && owner.Main.RelativePath == rel {
			return owner.Main
		}
	case *Series:
		if extra := findExtra(owner.Extras, rel); extra != nil {
			return extra
		}
		for _, season := range owner.Seasons {
			if extra := findExtra(season.Extras, rel); extra != nil {
				return extra
			}
			for _, episodeFile := range season.EpisodeFiles {
				if episodeFile.RelativePath == rel {
					return episodeFile
				}
			}
		}
	case *Collection:
		if extra := findExtra(owner.Extras, rel); extra != nil {
			return extra
		}
	case *Album:
		if owner.RelativePath == rel {
			return owner
		}
	case *Audiobook:
		if owner.RelativePath == rel {
			return owner
		}
	}
	return nil
}

func findExtra(extras []*Extra, rel directory.RelativePath) *Extra {
	for _, extra := range extras {
		if extra.RelativePath == rel {
			return extra
		}
	}
	return nil
}
