package flaticon

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrParseIcon is returned when an icon element cannot be turned into a record.
var ErrParseIcon = errors.New("failed to parse image")

// Icon is a single search result.
type Icon struct {
	// ID is the file name stem of URL; it is not unique across results.
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Downloads int    `json:"downloads"`
	Pack      string `json:"pack"`
}

// Extract reads at most maxCount icon elements from doc.
//
// A nil slice means the page has no results, either because the site
// rendered its empty-results placeholder or because none of the visited
// elements carried an image URL. A returned slice is never empty.
//
// The cap applies to visited elements: elements without an image URL are
// skipped but still count towards maxCount.
func Extract(doc *goquery.Document, m Markup, maxCount int) ([]Icon, error) {
	if doc.Find(m.EmptySelector).Length() > 0 {
		return nil, nil
	}

	var (
		icons []Icon
		err   error
	)
	doc.Find(m.ItemSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxCount {
			return false
		}

		src, _ := s.Attr(m.ImageAttr)
		if src == "" {
			return true
		}

		var id string
		id, err = iconID(src)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrParseIcon, err)
			return false
		}

		name, _ := s.Attr(m.NameAttr)
		pack, _ := s.Attr(m.PackAttr)
		if pack == "" {
			pack = UnknownPack
		}
		icons = append(icons, Icon{
			ID:        id,
			Name:      name,
			URL:       src,
			Downloads: parseDownloads(s.AttrOr(m.DownloadsAttr, "")),
			Pack:      pack,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	if len(icons) == 0 {
		return nil, nil
	}
	return icons, nil
}

// iconID returns the last path segment of src, as written, without query
// string or extension. Percent escapes are kept; only values that can never
// be sent as a request URL are rejected.
func iconID(src string) (string, error) {
	if i := strings.IndexFunc(src, isCTL); i >= 0 {
		return "", fmt.Errorf("invalid control character %q in %q", src[i], src)
	}
	name, _, _ := strings.Cut(src, "?")
	name = name[strings.LastIndex(name, "/")+1:]
	name, _, _ = strings.Cut(name, ".")
	return name, nil
}

func isCTL(r rune) bool {
	return r < ' ' || r == 0x7f
}

func parseDownloads(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
