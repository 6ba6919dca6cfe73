package webresource

import (
	"html"
	"io"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-webresource/catalog"
)

// Kind is a renderable resource kind.
type Kind int

const (
	KindCSS Kind = iota
	KindJS
	numKinds
)

// String returns the resource type suffix of k.
func (k Kind) String() string {
	switch k {
	case KindCSS:
		return "css"
	case KindJS:
		return "js"
	}
	return "unknown"
}

// KindOf maps a resource type to its Kind. ok is false for types with no
// tag form, such as images.
func KindOf(typ string) (k Kind, ok bool) {
	switch typ {
	case "css":
		return KindCSS, true
	case "js":
		return KindJS, true
	}
	return 0, false
}

// formatter writes the tag for url with the resource's parameters.
type formatter func(b *strings.Builder, url string, params catalog.Params)

var formatters = [numKinds]formatter{
	KindCSS: formatCSS,
	KindJS:  formatJS,
}

func formatCSS(b *strings.Builder, url string, params catalog.Params) {
	b.WriteString(`<link type="text/css" rel="stylesheet" href="`)
	b.WriteString(html.EscapeString(url))
	b.WriteString(`" media="`)
	media := params[catalog.ParamMedia]
	if media == "" {
		media = "all"
	}
	b.WriteString(html.EscapeString(media))
	b.WriteString(`">`)
}

func formatJS(b *strings.Builder, url string, _ catalog.Params) {
	b.WriteString(`<script type="text/javascript" src="`)
	b.WriteString(html.EscapeString(url))
	b.WriteString(`" ></script>`)
}

// Tag is one resource reference ready to be written into a page.
type Tag struct {
	Kind   Kind
	URL    string
	Params catalog.Params
}

// String renders t, wrapped in a conditional comment when its parameters
// ask for one.
func (t Tag) String() string {
	var b strings.Builder
	cond := t.Params[catalog.ParamConditionalComment]
	if cond == "" && t.Params[catalog.ParamIEOnly] == "true" {
		cond = "IE"
	}
	if cond != "" {
		b.WriteString("<!--[if ")
		b.WriteString(cond)
		b.WriteString("]>")
	}
	formatters[t.Kind](&b, t.URL, t.Params)
	if cond != "" {
		b.WriteString("<![endif]-->")
	}
	return b.String()
}

// sortTags orders tags CSS first, keeping the relative order within a kind.
func sortTags(tags []Tag) {
	slices.SortStableFunc(tags, func(a, b Tag) int {
		return int(a.Kind) - int(b.Kind)
	})
}

// writeTags writes one tag per line.
func writeTags(w io.Writer, tags []Tag) error {
	for _, t := range tags {
		if _, err := io.WriteString(w, t.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
