package flaticon

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSearchURL is the Flaticon search page all queries are sent to.
const DefaultSearchURL = "https://www.flaticon.com/search"

// Shape is the icon style token understood by the search page.
type Shape string

const (
	ShapeAll         Shape = ""
	ShapeOutline     Shape = "outline"
	ShapeFill        Shape = "fill"
	ShapeLinealColor Shape = "lineal-color"
	ShapeHandDrawn   Shape = "hand-drawn"
)

// ParseShape maps a user supplied token to a Shape.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ShapeAll, nil
	case string(ShapeOutline):
		return ShapeOutline, nil
	case string(ShapeFill):
		return ShapeFill, nil
	case string(ShapeLinealColor):
		return ShapeLinealColor, nil
	case string(ShapeHandDrawn):
		return ShapeHandDrawn, nil
	}
	return ShapeAll, fmt.Errorf("unknown shape %q", s)
}

// OrderBy is the numeric sort code sent as order_by.
type OrderBy int

const (
	OrderNone    OrderBy = 0
	OrderRecent  OrderBy = 2
	OrderPopular OrderBy = 4
)

// ParseOrderBy accepts either the name or the numeric code of an ordering.
func ParseOrderBy(s string) (OrderBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return OrderNone, nil
	case "popular", "4":
		return OrderPopular, nil
	case "recent", "2":
		return OrderRecent, nil
	}
	return OrderNone, fmt.Errorf("unknown order %q", s)
}

func (o OrderBy) String() string {
	switch o {
	case OrderPopular:
		return "popular"
	case OrderRecent:
		return "recent"
	case OrderNone:
		return "none"
	}
	return strconv.Itoa(int(o))
}

// Filters narrows a search. The zero value applies no filter.
type Filters struct {
	Shape   Shape
	OrderBy OrderBy
	Craft   bool
}

// BuildSearchURL returns the search page URL for query on flaticon.com.
// Optional parameters are only emitted when they differ from their default.
func BuildSearchURL(query string, f Filters) string {
	return buildSearchURL(DefaultSearchURL, query, f)
}

func buildSearchURL(base, query string, f Filters) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?word=")
	b.WriteString(escapeTerm(query))

	if f.Shape != ShapeAll {
		b.WriteString("&shape=")
		b.WriteString(escapeTerm(string(f.Shape)))
	}
	if f.OrderBy != OrderNone {
		b.WriteString("&order_by=")
		b.WriteString(strconv.Itoa(int(f.OrderBy)))
	}
	if f.Craft {
		b.WriteString("&craft=1")
	}
	return b.String()
}

// escapeTerm percent-encodes a query value, spaces as %20.
func escapeTerm(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
