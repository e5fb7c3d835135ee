package flaticon

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Markup describes where icon data lives in a search results page.
// The site changes its markup from time to time; everything that depends
// on it is kept here.
type Markup struct {
	EmptySelector string `yaml:"empty_selector"`
	ItemSelector  string `yaml:"item_selector"`
	ImageAttr     string `yaml:"image_attr"`
	NameAttr      string `yaml:"name_attr"`
	DownloadsAttr string `yaml:"downloads_attr"`
	PackAttr      string `yaml:"pack_attr"`
}

// UnknownPack is used when an icon carries no pack name.
const UnknownPack = "Unknown"

// DefaultMarkup returns the rules matching the current flaticon.com layout.
func DefaultMarkup() Markup {
	return Markup{
		EmptySelector: "#alternative-search",
		ItemSelector:  "li.icon--item",
		ImageAttr:     "data-png",
		NameAttr:      "data-name",
		DownloadsAttr: "data-downloads",
		PackAttr:      "data-pack_name",
	}
}

// Merge returns m with every empty field taken from fallback.
func (m Markup) Merge(fallback Markup) Markup {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Markup{
		EmptySelector: pick(m.EmptySelector, fallback.EmptySelector),
		ItemSelector:  pick(m.ItemSelector, fallback.ItemSelector),
		ImageAttr:     pick(m.ImageAttr, fallback.ImageAttr),
		NameAttr:      pick(m.NameAttr, fallback.NameAttr),
		DownloadsAttr: pick(m.DownloadsAttr, fallback.DownloadsAttr),
		PackAttr:      pick(m.PackAttr, fallback.PackAttr),
	}
}

// Validate checks that both selectors compile and every attribute is named.
func (m Markup) Validate() error {
	var errs []error
	for name, sel := range map[string]string{
		"empty_selector": m.EmptySelector,
		"item_selector":  m.ItemSelector,
	} {
		if sel == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, sel, err))
		}
	}
	for name, attr := range map[string]string{
		"image_attr":     m.ImageAttr,
		"name_attr":      m.NameAttr,
		"downloads_attr": m.DownloadsAttr,
		"pack_attr":      m.PackAttr,
	} {
		if attr == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	return errors.Join(errs...)
}
