package catalog

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ──────────────────── Name Parsing ────────────────────
//
// All catalog classification is driven by folder/file naming conventions:
//
//	Title (YYYY)[.version<tag>][.imdb-tt<id>]/Season <n>/Title.sXXeYY[-eZZ][.eN-<ms>...].mp4
//	<name>.feedorder-<n>
//
// The patterns live here, isolated from classification order, so they can
// be revised without touching the classifier.

var yearRx = regexp.MustCompile(`\((\d{4})\)`)
var versionRx = regexp.MustCompile(`\.version([^.]{1,50})\.`)
var imdbRx = regexp.MustCompile(`\.imdb-(tt\d{7,8})`)
var feedOrderRx = regexp.MustCompile(`\.feedorder-(\d{1,2})`)
var articlesRx = regexp.MustCompile(`(?i)^(the|a|an)\s+`)

// collectionRx splits a title into a collection prefix and a feature name
// when the title carries a sequel numeral, a colon, or an "and the" joint.
var collectionRx = regexp.MustCompile(`^(?P<series>[^\d:]{1,100})((\d{1,3})+|:|and the):*(?P<title>.{1,100})*`)

// takenAtRx matches camera-style timestamps: YYYYMMDD_HHMMSS,
// YYYYMMDD-HHMMSS, YYYY-MM-DD_HH-MM-SS and friends.
var takenAtRx = regexp.MustCompile(`(\d{4})[_-]*(\d{2})[_-]*(\d{2})[_-]*(\d{2})[_-]*(\d{2})[_-]*(\d{2})`)

// NamePieces is everything ParseNamePieces can read out of a single
// folder or file name.
type NamePieces struct {
	Name    string
	Year    string
	Version string
	ImdbID  string
}

// RemoveExtensions strips the extension chain from a file name: everything
// from the first '.' that follows the last space is dropped. Dots inside
// the spoken part of a title ("Dr. Strange (2016)") survive because a
// space always follows them.
func RemoveExtensions(filename string) string {
	searchFrom := strings.LastIndex(filename, " ") + 1
	if idx := strings.Index(filename[searchFrom:], "."); idx >= 0 {
		return filename[:searchFrom+idx]
	}
	return filename
}

// ParseNamePieces extracts {title, year, version, imdb id} from a folder or
// file name. The year is the first "(YYYY)" match on the extension-stripped
// name; version and imdb tags are read from the full, unstripped name.
func ParseNamePieces(nameOrPath string) NamePieces {
	name := nameOrPath
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	stripped := RemoveExtensions(name)

	pieces := NamePieces{Name: strings.TrimSpace(stripped)}
	if m := yearRx.FindStringSubmatchIndex(stripped); m != nil {
		pieces.Year = stripped[m[2]:m[3]]
		pieces.Name = strings.TrimSpace(stripped[:m[0]])
	}
	if m := versionRx.FindStringSubmatch(nameOrPath); m != nil {
		pieces.Version = strings.TrimSpace(strings.ReplaceAll(m[1], "_", " "))
	}
	if m := imdbRx.FindStringSubmatch(nameOrPath); m != nil {
		pieces.ImdbID = m[1]
	}
	return pieces
}

// FeedOrder reads the manual ".feedorder-<n>" ordering override from a
// folder name. Returns nil when the marker is absent.
func FeedOrder(folderName string) *int {
	m := feedOrderRx.FindStringSubmatch(folderName)
	if m == nil {
		return nil
	}
	order, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &order
}

// RemoveArticles drops a leading English article from a title.
func RemoveArticles(name string) string {
	return articlesRx.ReplaceAllString(name, "")
}

// SortKey derives the display ordering key for a folder name. Leading
// articles are stripped; collection titles are split into collection and
// feature parts so sequels group together. Items without a year get "0000"
// and sort first within their collection. providedYear overrides the year
// parsed from the name (used when a probe knows better).
func SortKey(folderName, providedYear string) string {
	pieces := ParseNamePieces(folderName)
	withoutArticles := RemoveArticles(pieces.Name)

	collectionName := ""
	featureName := withoutArticles
	if m := collectionRx.FindStringSubmatch(withoutArticles); m != nil {
		collectionName = strings.TrimSpace(m[collectionRx.SubexpIndex("series")])
		featureName = strings.TrimSpace(m[collectionRx.SubexpIndex("title")])
		if featureName == "" {
			featureName = withoutArticles
		}
	}

	year := providedYear
	if year == "" {
		year = pieces.Year
	}
	if year == "" {
		year = "0000"
	}

	keyParts := []string{featureName, year}
	if collectionName != "" {
		keyParts = append([]string{collectionName, year}, keyParts...)
	}
	return strings.ToLower(strings.Join(keyParts, "_"))
}

// TakenAt parses a camera timestamp out of a file name. Returns nil when
// no timestamp pattern matches or the digits do not form a valid time.
func TakenAt(fileName string) *time.Time {
	m := takenAtRx.FindStringSubmatch(fileName)
	if m == nil {
		return nil
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
	return &t
}

// extraNameAndType matches the fixed "-<type>" suffix set on an
// extension-stripped file name. The type is nil for unrecognized suffixes;
// the clean display name is returned either way.
func extraNameAndType(fileName string) (string, *ExtraType) {
	withoutExt := RemoveExtensions(fileName)
	lower := strings.ToLower(withoutExt)
	for _, extraType := range ExtraTypes {
		suffix := "-" + string(extraType)
		if strings.HasSuffix(lower, suffix) {
			name := strings.TrimSpace(withoutExt[:len(withoutExt)-len(suffix)])
			t := extraType
			return name, &t
		}
	}
	return strings.TrimSpace(withoutExt), nil
}
