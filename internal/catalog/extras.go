package catalog

import (
	"strings"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// prepareExtras classifies the bonus material sitting next to a main
// feature: behind-the-scenes reels, deleted scenes, featurettes and
// trailers, plus anything else in .mp4 form. Non-mp4 files are ignored.
// The exclude set holds relative paths already claimed as main content.
func prepareExtras(files []directory.Entry, exclude map[directory.RelativePath]bool) []*Extra {
	var extras []*Extra
	for _, file := range files {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".mp4") {
			continue
		}
		rel := file.Path.RelativePath()
		if exclude[rel] {
			continue
		}
		name, extraType := extraNameAndType(file.Name)
		extras = append(extras, &Extra{
			Type:         PlayExtra,
			Name:         name,
			ExtraType:    extraType,
			FileName:     file.Name,
			RelativePath: rel,
			StillThumb:   "/thumb/" + string(rel) + "?width=300",
			path:         file.Path,
		})
	}
	return extras
}
