package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-webresource/label"
)

const sampleDescriptor = `
plugin(key = "com.example.app", version = "1.2.0")

web_resource(
    key = "core",
    dependencies = ["com.example.lib:jquery", ":util"],
    contexts = ["atl.general", "atl.general"],
    resources = [
        resource(name = "core.js"),
        resource(name = "print.css", params = {"media": "print"}),
        resource(name = "ie.css", params = {"ieonly": True}),
    ],
)

web_resource(
    key = "util",
    batch = False,
    enabled = False,
    resources = [resource(name = "util.js")],
)

plugin_module(key = "servlet", kind = "servlet")
`

func TestParseContent(t *testing.T) {
	result, err := ParseContent("app.webresource", []byte(sampleDescriptor))
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	if result.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Err())
	}
	if result.Plugin != "com.example.app" || result.Version != "1.2.0" {
		t.Errorf("plugin = %q@%q", result.Plugin, result.Version)
	}
	if len(result.Modules) != 3 {
		t.Fatalf("got %d modules, want 3", len(result.Modules))
	}

	want := &ModuleDescriptor{
		Key:       label.MustKey("com.example.app:core"),
		Kind:      KindWebResource,
		Enabled:   true,
		Batchable: true,
		Resources: []Resource{
			{Name: "core.js", Type: "js"},
			{Name: "print.css", Type: "css", Params: Params{"media": "print"}},
			{Name: "ie.css", Type: "css", Params: Params{"ieonly": "true"}},
		},
		Dependencies: []label.Key{
			label.MustKey("com.example.lib:jquery"),
			label.MustKey("com.example.app:util"),
		},
		Contexts: []label.Context{label.MustContext("atl.general")},
		Version:  "1.2.0",
	}
	if diff := cmp.Diff(want, result.Modules[0], cmp.AllowUnexported(label.Key{}, label.Context{})); diff != "" {
		t.Errorf("core mismatch (-want +got):\n%s", diff)
	}

	util := result.Modules[1]
	if util.Enabled || util.Batchable {
		t.Errorf("util: enabled=%v batchable=%v, want false/false", util.Enabled, util.Batchable)
	}
	if result.Modules[2].Kind != Kind("servlet") {
		t.Errorf("servlet kind = %q", result.Modules[2].Kind)
	}
}

func TestParseContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "module before plugin",
			content: `web_resource(key = "a")`,
			wantMsg: "must follow a plugin() declaration",
		},
		{
			name:    "missing plugin key",
			content: `plugin(version = "1")`,
			wantMsg: "missing required key",
		},
		{
			name: "bad dependency",
			content: `plugin(key = "p", version = "1")
web_resource(key = "a", dependencies = ["nocolon"])`,
			wantMsg: "dependency",
		},
		{
			name: "bad context",
			content: `plugin(key = "p", version = "1")
web_resource(key = "a", contexts = ["a,b"])`,
			wantMsg: "invalid context",
		},
		{
			name: "duplicate resource",
			content: `plugin(key = "p", version = "1")
web_resource(key = "a", resources = [resource(name = "a.js"), resource(name = "a.js")])`,
			wantMsg: "duplicate resource",
		},
		{
			name: "plugin_module without kind",
			content: `plugin(key = "p", version = "1")
plugin_module(key = "a")`,
			wantMsg: "missing required kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseContent("err.webresource", []byte(tt.content))
			if err != nil {
				t.Fatalf("ParseContent: %v", err)
			}
			if !result.HasErrors() {
				t.Fatal("expected errors")
			}
			if !strings.Contains(result.Err().Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", result.Err(), tt.wantMsg)
			}
			if result.Errors[0].Pos.Line == 0 {
				t.Error("error should carry a line number")
			}
		})
	}
}

func TestParseContent_SyntaxError(t *testing.T) {
	_, err := ParseContent("broken.webresource", []byte(`plugin(key = `))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if perr.Unwrap() == nil {
		t.Error("syntax error should wrap the parser error")
	}
}

func TestParseContent_Warnings(t *testing.T) {
	result, err := ParseContent("w.webresource", []byte(`plugin(key = "p")
unknown_thing(x = 1)
web_resource(key = "a", dependencies = [":a"])`))
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	if result.HasErrors() {
		t.Fatalf("unexpected errors: %v", result.Err())
	}
	if len(result.Warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(result.Warnings), result.Warnings)
	}
	if len(result.Modules[0].Dependencies) != 0 {
		t.Error("self dependency should be dropped")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.webresource"), `plugin(key = "b", version = "2")
web_resource(key = "m", contexts = ["ctx"])`)
	writeFile(t, filepath.Join(dir, "nested", "a.webresource"), `plugin(key = "a", version = "1")
web_resource(key = "m", contexts = ["ctx"])`)
	writeFile(t, filepath.Join(dir, "ignored.txt"), `not a descriptor`)

	c, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	want := []label.Key{label.MustKey("b:m"), label.MustKey("a:m")}
	got := c.ContextModules(label.MustContext("ctx"))
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(label.Key{})); diff != "" {
		t.Errorf("ContextModules mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir_Duplicate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.webresource"), `plugin(key = "p", version = "1")
web_resource(key = "m")`)
	writeFile(t, filepath.Join(dir, "b.webresource"), `plugin(key = "p", version = "1")
web_resource(key = "m")`)

	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "already declared") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
