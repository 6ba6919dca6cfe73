package manifest

import (
	"bytes"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

func TestNew(t *testing.T) {
	m := New()
	if m.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", m.Version, CurrentVersion)
	}
	if m.Batches == nil {
		t.Error("Batches is nil")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		r    addressing.Resource
		want string
	}{
		{
			name: "context batch ignores hash",
			r: addressing.Resource{
				Kind:     addressing.KindContextBatch,
				Contexts: []label.Context{label.MustContext("x"), label.MustContext("y")},
				Type:     "css",
				Params:   catalog.Params{"media": "print"},
				Hash:     "abc",
			},
			want: "/download/contextbatch/css/x,y/batch.css?media=print",
		},
		{
			name: "super-batch",
			r:    addressing.Resource{Kind: addressing.KindSuperBatch, Type: "js", Hash: "abc"},
			want: "/download/superbatch/js/sb.js",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.r); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdd(t *testing.T) {
	m := New()
	r := addressing.Resource{Kind: addressing.KindModuleBatch, Module: label.MustKey("p:a"), Type: "js", Hash: "h1"}
	m.Add(r, "/s/h1/_/download/batch/p:a/p:a.js", []label.Key{label.MustKey("p:a")})

	got, ok := m.Get("/download/batch/p:a/p:a.js")
	if !ok {
		t.Fatalf("Get() missing entry; keys = %v", m.Keys())
	}
	want := Entry{Kind: "batch", Hash: "h1", URL: "/s/h1/_/download/batch/p:a/p:a.js", Modules: []string{"p:a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	m := New()
	m.Set("/b?x=1&y=2", Entry{Kind: "batch", Hash: "2"})
	m.Set("/a", Entry{Kind: "batch", Hash: "1"})

	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := m.Marshal()
		if !bytes.Equal(again, data) {
			t.Fatal("Marshal() is not deterministic")
		}
	}

	s := string(data)
	if strings.Index(s, `"/a"`) > strings.Index(s, `"/b?x=1&y=2"`) {
		t.Errorf("keys not sorted:\n%s", s)
	}
	if strings.Contains(s, `\u0026`) {
		t.Errorf("Marshal() escaped '&':\n%s", s)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := New()
	m.Set("/download/superbatch/js/sb.js", Entry{Kind: "superbatch", Hash: "abc", Modules: []string{"p:core"}})

	if Exists(path) {
		t.Fatal("Exists() = true before write")
	}
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists() = false after write")
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		wantLen int
	}{
		{"empty batches", `{"manifestVersion": 1}`, false, 0},
		{"one entry", `{"manifestVersion": 1, "batches": {"/a": {"kind": "batch", "hash": "1"}}}`, false, 1},
		{"newer version", `{"manifestVersion": 99}`, true, 0},
		{"invalid json", `{`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.wantLen)
			}
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile() error = %v, want not-exist", err)
	}
}

func TestMerge(t *testing.T) {
	base := func() *Manifest {
		m := New()
		m.Set("/a", Entry{Hash: "1"})
		m.Set("/b", Entry{Hash: "1"})
		return m
	}
	other := New()
	other.Set("/b", Entry{Hash: "2"})
	other.Set("/c", Entry{Hash: "3"})

	tests := []struct {
		name     string
		strategy MergeStrategy
		wantB    string
		wantErr  bool
	}{
		{"prefer existing", MergePreferExisting, "1", false},
		{"prefer new", MergePreferNew, "2", false},
		{"error on conflict", MergeErrorOnConflict, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			err := m.Merge(other, tt.strategy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Merge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := m.Batches["/b"].Hash; got != tt.wantB {
				t.Errorf("/b hash = %q, want %q", got, tt.wantB)
			}
			if _, ok := m.Get("/c"); !ok {
				t.Error("/c not merged")
			}
		})
	}

	m := base()
	if err := m.Merge(nil, MergeErrorOnConflict); err != nil || m.Len() != 2 {
		t.Errorf("Merge(nil) = %v, len %d", err, m.Len())
	}
}

func TestCompare(t *testing.T) {
	before := New()
	before.Set("/a", Entry{Hash: "1"})
	before.Set("/b", Entry{Hash: "1"})
	before.Set("/gone", Entry{Hash: "9"})

	after := New()
	after.Set("/a", Entry{Hash: "1"})
	after.Set("/b", Entry{Hash: "2"})
	after.Set("/new", Entry{Hash: "5"})

	diff := Compare(before, after)
	want := &Diff{
		Added:   []Change{{Key: "/new", Hash: "5"}},
		Removed: []Change{{Key: "/gone", Hash: "9"}},
		Changed: []HashChange{{Key: "/b", OldHash: "1", NewHash: "2"}},
	}
	if d := cmp.Diff(want, diff); d != "" {
		t.Errorf("Compare() mismatch (-want +got):\n%s", d)
	}
	if diff.TotalChanges() != 3 {
		t.Errorf("TotalChanges() = %d, want 3", diff.TotalChanges())
	}
	if !strings.Contains(diff.Summary(), "~ /b (1 -> 2)") {
		t.Errorf("Summary() = %q", diff.Summary())
	}

	if !Compare(after, after).IsEmpty() {
		t.Error("Compare(m, m) not empty")
	}
	if got := Compare(nil, after); len(got.Added) != 3 {
		t.Errorf("Compare(nil, m).Added = %v, want 3 entries", got.Added)
	}
}
