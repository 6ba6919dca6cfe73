package webresource

import (
	"testing"

	"github.com/albertocavalcante/go-webresource/catalog"
)

func TestTag_String(t *testing.T) {
	tests := []struct {
		name string
		tag  Tag
		want string
	}{
		{
			name: "css default media",
			tag:  Tag{Kind: KindCSS, URL: "/a.css"},
			want: `<link type="text/css" rel="stylesheet" href="/a.css" media="all">`,
		},
		{
			name: "css print",
			tag:  Tag{Kind: KindCSS, URL: "/a.css?media=print", Params: catalog.Params{"media": "print"}},
			want: `<link type="text/css" rel="stylesheet" href="/a.css?media=print" media="print">`,
		},
		{
			name: "js",
			tag:  Tag{Kind: KindJS, URL: "/a.js"},
			want: `<script type="text/javascript" src="/a.js" ></script>`,
		},
		{
			name: "ie only",
			tag:  Tag{Kind: KindJS, URL: "/a.js", Params: catalog.Params{"ieonly": "true"}},
			want: `<!--[if IE]><script type="text/javascript" src="/a.js" ></script><![endif]-->`,
		},
		{
			name: "conditional comment",
			tag:  Tag{Kind: KindCSS, URL: "/a.css", Params: catalog.Params{"conditionalComment": "lt IE 9"}},
			want: `<!--[if lt IE 9]><link type="text/css" rel="stylesheet" href="/a.css" media="all"><![endif]-->`,
		},
		{
			name: "escaped url",
			tag:  Tag{Kind: KindJS, URL: `/a.js?x=1&y="2"`},
			want: `<script type="text/javascript" src="/a.js?x=1&amp;y=&#34;2&#34;" ></script>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	for typ, want := range map[string]bool{"css": true, "js": true, "png": false, "": false} {
		if _, ok := KindOf(typ); ok != want {
			t.Errorf("KindOf(%q) ok = %v, want %v", typ, ok, want)
		}
	}
}

func TestSortTags(t *testing.T) {
	tags := []Tag{
		{Kind: KindJS, URL: "1"},
		{Kind: KindCSS, URL: "2"},
		{Kind: KindJS, URL: "3"},
		{Kind: KindCSS, URL: "4"},
	}
	sortTags(tags)
	var got string
	for _, tag := range tags {
		got += tag.URL
	}
	if got != "2413" {
		t.Errorf("sortTags() order = %s, want 2413", got)
	}
}
