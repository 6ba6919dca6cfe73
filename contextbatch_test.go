package webresource

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-webresource/addressing"
	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

func descriptor(key, version string) *catalog.ModuleDescriptor {
	return &catalog.ModuleDescriptor{Key: label.MustKey(key), Version: version, Enabled: true, Batchable: true}
}

func TestHashModules(t *testing.T) {
	a, b := descriptor("p:a", "1.0"), descriptor("p:b", "2.0")

	sum := md5.Sum([]byte("p:a1.0p:b2.0"))
	want := hex.EncodeToString(sum[:])

	got, err := HashModules([]*catalog.ModuleDescriptor{a, b})
	if err != nil {
		t.Fatalf("HashModules() error = %v", err)
	}
	if got != want {
		t.Errorf("HashModules() = %q, want %q", got, want)
	}

	again, _ := HashModules([]*catalog.ModuleDescriptor{a, b})
	if again != got {
		t.Errorf("HashModules() not deterministic: %q vs %q", again, got)
	}

	reordered, _ := HashModules([]*catalog.ModuleDescriptor{b, a})
	if reordered == got {
		t.Error("HashModules() ignores module order")
	}

	bumped, _ := HashModules([]*catalog.ModuleDescriptor{a, descriptor("p:b", "2.1")})
	if bumped == got {
		t.Error("HashModules() ignores version changes")
	}
}

// failingDigest is a hash.Hash whose writes always fail.
type failingDigest struct{}

func (failingDigest) Write([]byte) (int, error) { return 0, errors.New("digest broken") }
func (failingDigest) Sum(b []byte) []byte       { return b }
func (failingDigest) Reset()                    {}
func (failingDigest) Size() int                 { return md5.Size }
func (failingDigest) BlockSize() int            { return md5.BlockSize }

func withFailingDigest(t *testing.T) {
	t.Helper()
	orig := newDigest
	newDigest = func() hash.Hash { return failingDigest{} }
	t.Cleanup(func() { newDigest = orig })
}

func TestContextBatch_HashFallback(t *testing.T) {
	withFailingDigest(t)

	batch := NewContextBatch(label.MustContext("x"), nil)
	batch.AddModule(descriptor("p:a", "1.0"))
	batch.AddResourceType(res("a.js"))

	if got := batch.Hash(); got != PlaceholderHash {
		t.Errorf("Hash() = %q, want placeholder %q", got, PlaceholderHash)
	}
	resources := batch.BuildResources()
	if len(resources) != 1 || resources[0].Hash != PlaceholderHash {
		t.Errorf("BuildResources() = %+v, want one resource with placeholder hash", resources)
	}
}

func TestContextBatch_Partitions(t *testing.T) {
	batch := NewContextBatch(label.MustContext("x"), nil)
	batch.AddResourceType(res("a.js"))
	batch.AddResourceType(resp("a.css", catalog.Params{"media": "print"}))
	batch.AddResourceType(res("b.js"))
	batch.AddResourceType(resp("b.css", catalog.Params{"media": "print", "foo": "ignored"}))
	batch.AddResourceType(res("c.css"))

	var got []string
	for _, p := range batch.Partitions() {
		got = append(got, p.Type+"?"+p.Params.Canonical())
	}
	want := []string{"js?", "css?media=print", "css?"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partitions() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeContextBatches(t *testing.T) {
	a := NewContextBatch(label.MustContext("x"), nil)
	a.AddModule(descriptor("p:a", "1"))
	a.AddResourceType(res("a.js"))

	b := NewContextBatch(label.MustContext("y"), nil)
	b.AddModule(descriptor("p:b", "1"))
	b.AddResourceType(res("b.js"))
	b.AddResourceType(res("b.css"))

	merged := MergeContextBatches(a, b)
	if got := merged.Key(); got != "x,y" {
		t.Errorf("Key() = %q, want %q", got, "x,y")
	}
	if diff := cmp.Diff([]string{"p:a", "p:b"}, keyStrings(merged.Modules())); diff != "" {
		t.Errorf("Modules() mismatch (-want +got):\n%s", diff)
	}
	if got := len(merged.Partitions()); got != 2 {
		t.Errorf("len(Partitions()) = %d, want 2", got)
	}
	if a.Key() != "x" || len(a.Modules()) != 1 {
		t.Error("MergeContextBatches modified its first argument")
	}
}

func TestMergeContextBatches_SharedModulePanics(t *testing.T) {
	a := NewContextBatch(label.MustContext("x"), nil)
	a.AddModule(descriptor("p:a", "1"))
	b := NewContextBatch(label.MustContext("y"), nil)
	b.AddModule(descriptor("p:a", "1"))

	defer func() {
		if recover() == nil {
			t.Error("MergeContextBatches() did not panic on a shared module")
		}
	}()
	MergeContextBatches(a, b)
}

func TestContextBatchResource_URL(t *testing.T) {
	batch := NewContextBatch(label.MustContext("x"), nil)
	batch.AddModule(descriptor("p:a", "1"))
	batch.AddResourceType(resp("a.css", catalog.Params{"media": "print"}))
	r := batch.BuildResources()[0]

	a, err := addressing.New("/app", false)
	if err != nil {
		t.Fatal(err)
	}
	want := "/app/s/" + r.Hash + "/_/download/contextbatch/css/x/batch.css?media=print"
	if got := a.URL(r.Resource(), addressing.ModeRelative); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

type builtBatch struct {
	Key      string
	Type     string
	Params   string
	Excluded string
	Modules  []string
}

func summarize(resources []*ContextBatchResource) []builtBatch {
	out := []builtBatch{}
	for _, r := range resources {
		out = append(out, builtBatch{
			Key:      r.Key,
			Type:     r.Type,
			Params:   r.Params.Canonical(),
			Excluded: label.JoinContexts(r.Excluded),
			Modules:  keyStrings(r.Modules),
		})
	}
	return out
}

func TestContextBatchBuilder_Build(t *testing.T) {
	tests := []struct {
		name         string
		mods         []mod
		contexts     []string
		excluded     []string
		filter       ResourceFilter
		want         []builtBatch
		wantIncluded []string
		wantSkipped  []string
	}{
		{
			name: "independent contexts",
			mods: []mod{
				{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{res("a.js")}},
				{key: "p:b", contexts: []string{"y"}, resources: []catalog.Resource{res("b.js"), res("b.css")}},
			},
			contexts: []string{"x", "y"},
			want: []builtBatch{
				{Key: "x", Type: "js", Modules: []string{"p:a"}},
				{Key: "y", Type: "js", Modules: []string{"p:b"}},
				{Key: "y", Type: "css", Modules: []string{"p:b"}},
			},
			wantIncluded: []string{"p:a", "p:b"},
			wantSkipped:  []string{},
		},
		{
			name: "shared dependency merges",
			mods: []mod{
				{key: "p:lib", resources: []catalog.Resource{res("lib.js")}},
				{key: "p:a", contexts: []string{"x"}, deps: []string{"p:lib"}, resources: []catalog.Resource{res("a.js")}},
				{key: "p:b", contexts: []string{"y"}, deps: []string{"p:lib"}, resources: []catalog.Resource{res("b.js")}},
			},
			contexts: []string{"x", "y"},
			want: []builtBatch{
				{Key: "x,y", Type: "js", Modules: []string{"p:lib", "p:a", "p:b"}},
			},
			wantIncluded: []string{"p:lib", "p:a", "p:b"},
			wantSkipped:  []string{},
		},
		{
			name: "merge keeps earliest slot",
			mods: []mod{
				{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{res("a.js")}},
				{key: "p:w", contexts: []string{"w"}, resources: []catalog.Resource{res("w.js")}},
				{key: "p:b", contexts: []string{"y"}, resources: []catalog.Resource{res("b.js")}},
				{key: "p:c", contexts: []string{"z"}, deps: []string{"p:a", "p:b"}, resources: []catalog.Resource{res("c.js")}},
			},
			contexts: []string{"x", "w", "y", "z"},
			want: []builtBatch{
				{Key: "x,y,z", Type: "js", Modules: []string{"p:a", "p:b", "p:c"}},
				{Key: "w", Type: "js", Modules: []string{"p:w"}},
			},
			wantIncluded: []string{"p:a", "p:w", "p:b", "p:c"},
			wantSkipped:  []string{},
		},
		{
			name: "context with no modules is absent",
			mods: []mod{
				{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{res("a.js")}},
			},
			contexts:     []string{"empty", "x"},
			want:         []builtBatch{{Key: "x", Type: "js", Modules: []string{"p:a"}}},
			wantIncluded: []string{"p:a"},
			wantSkipped:  []string{},
		},
		{
			name: "non-batchable module skipped",
			mods: []mod{
				{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{res("a.js")}},
				{key: "p:solo", contexts: []string{"x"}, unbatchable: true, resources: []catalog.Resource{res("solo.js")}},
			},
			contexts:     []string{"x"},
			want:         []builtBatch{{Key: "x", Type: "js", Modules: []string{"p:a"}}},
			wantIncluded: []string{"p:a"},
			wantSkipped:  []string{"p:solo"},
		},
		{
			name: "filter and params",
			mods: []mod{
				{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{
					res("a.js"),
					res("a.css"),
					resp("print.css", catalog.Params{"media": "print"}),
					resp("raw.css", catalog.Params{"batch": "false"}),
				}},
			},
			contexts: []string{"x"},
			filter:   FilterType("css"),
			want: []builtBatch{
				{Key: "x", Type: "css", Modules: []string{"p:a"}},
				{Key: "x", Type: "css", Params: "media=print", Modules: []string{"p:a"}},
			},
			wantIncluded: []string{"p:a"},
			wantSkipped:  []string{},
		},
		{
			name: "excluded context modules left out",
			mods: []mod{
				{key: "p:lib", resources: []catalog.Resource{res("lib.js")}},
				{key: "p:m1", contexts: []string{"x", "y"}, deps: []string{"p:lib"}, resources: []catalog.Resource{res("m1.js")}},
				{key: "p:m2", contexts: []string{"y"}, deps: []string{"p:lib"}, resources: []catalog.Resource{res("m2.js")}},
			},
			contexts: []string{"y"},
			excluded: []string{"x"},
			want: []builtBatch{
				{Key: "y", Type: "js", Excluded: "x", Modules: []string{"p:m2"}},
			},
			wantIncluded: []string{"p:m2"},
			wantSkipped:  []string{},
		},
		{
			name: "excluded non-batchable member keeps its dependencies out",
			mods: []mod{
				{key: "p:dep", resources: []catalog.Resource{res("dep.js")}},
				{key: "p:solo", contexts: []string{"x"}, unbatchable: true, deps: []string{"p:dep"}, resources: []catalog.Resource{res("solo.js")}},
				{key: "p:b", contexts: []string{"y"}, deps: []string{"p:dep"}, resources: []catalog.Resource{res("b.js")}},
			},
			contexts: []string{"y"},
			excluded: []string{"x"},
			want: []builtBatch{
				{Key: "y", Type: "js", Excluded: "x", Modules: []string{"p:b"}},
			},
			wantIncluded: []string{"p:b"},
			wantSkipped:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewDependencyResolver(newTestCatalog(t, tt.mods...))
			if err != nil {
				t.Fatalf("NewDependencyResolver() error = %v", err)
			}
			b, err := NewContextBatchBuilder(r)
			if err != nil {
				t.Fatalf("NewContextBatchBuilder() error = %v", err)
			}

			got := summarize(b.BuildExcluding(contexts(tt.contexts...), contexts(tt.excluded...), tt.filter))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("BuildExcluding() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantIncluded, keyStrings(b.Included().Keys())); diff != "" {
				t.Errorf("Included() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSkipped, keyStrings(b.Skipped().Keys())); diff != "" {
				t.Errorf("Skipped() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContextBatchBuilder_ExcludesSuperBatch(t *testing.T) {
	cat := newTestCatalog(t,
		mod{key: "p:core", resources: []catalog.Resource{res("core.js")}},
		mod{key: "p:a", contexts: []string{"x"}, deps: []string{"p:core"}, resources: []catalog.Resource{res("a.js")}},
	)
	r, err := NewDependencyResolver(cat, WithSuperBatch(keys("p:core"), func() string { return "1" }))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewContextBatchBuilder(r)

	got := summarize(b.Build(contexts("x"), nil))
	want := []builtBatch{{Key: "x", Type: "js", Modules: []string{"p:a"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestContextBatchBuilder_HashFallbackMetric(t *testing.T) {
	withFailingDigest(t)
	reg := prometheus.NewRegistry()
	logger, logs := newTestLogger()

	cat := newTestCatalog(t, mod{key: "p:a", contexts: []string{"x"}, resources: []catalog.Resource{res("a.js")}})
	r, err := NewDependencyResolver(cat, WithMetrics(reg))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewContextBatchBuilder(r, WithLogger(logger))

	out := b.Build(contexts("x"), nil)
	if len(out) != 1 || out[0].Hash != PlaceholderHash {
		t.Fatalf("Build() = %+v, want one placeholder-hashed batch", out)
	}
	if got := counterValue(t, reg, "webresource_hash_fallbacks_total"); got != 1 {
		t.Errorf("hash fallbacks = %v, want 1", got)
	}
	if !strings.Contains(logs.String(), "using placeholder") {
		t.Errorf("log output = %q, want placeholder warning", logs.String())
	}
}

// TestContextBatchBuilder_NoDuplication checks over overlapping context
// layouts that every module is delivered by at most one batch.
func TestContextBatchBuilder_NoDuplication(t *testing.T) {
	ctxNames := []string{"c0", "c1", "c2", "c3", "c4"}
	for seed := 0; seed < 64; seed++ {
		var mods []mod
		for i := 0; i < 12; i++ {
			m := mod{key: "p:m" + string(rune('a'+i)), resources: []catalog.Resource{res("f.js"), res("f.css")}}
			if (seed>>(i%6))&1 == 1 {
				m.contexts = []string{ctxNames[(i+seed)%len(ctxNames)]}
			}
			if i > 0 && (seed+i)%3 == 0 {
				m.deps = []string{"p:m" + string(rune('a'+(i*7+seed)%i))}
			}
			mods = append(mods, m)
		}

		r, err := NewDependencyResolver(newTestCatalog(t, mods...))
		if err != nil {
			t.Fatal(err)
		}
		b, _ := NewContextBatchBuilder(r)
		out := b.Build(contexts(ctxNames...), FilterType("js"))

		owner := map[string]string{}
		for _, res := range out {
			for _, k := range res.Modules {
				if prev, ok := owner[k.String()]; ok && prev != res.Key {
					t.Fatalf("seed %d: module %s in batches %q and %q", seed, k, prev, res.Key)
				}
				owner[k.String()] = res.Key
			}
		}
		if len(owner) != b.Included().Len() {
			t.Errorf("seed %d: %d modules in batches, %d included", seed, len(owner), b.Included().Len())
		}
	}
}
