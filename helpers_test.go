package webresource

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/albertocavalcante/go-webresource/catalog"
	"github.com/albertocavalcante/go-webresource/label"
)

// mod is a compact module declaration for tests.
type mod struct {
	key         string
	deps        []string
	contexts    []string
	resources   []catalog.Resource
	kind        catalog.Kind
	disabled    bool
	unbatchable bool
	version     string
}

func newTestCatalog(t *testing.T, mods ...mod) *catalog.MemoryCatalog {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	for _, m := range mods {
		desc := &catalog.ModuleDescriptor{
			Key:       label.MustKey(m.key),
			Kind:      m.kind,
			Enabled:   !m.disabled,
			Batchable: !m.unbatchable,
			Resources: m.resources,
			Version:   m.version,
		}
		if desc.Version == "" {
			desc.Version = "1.0"
		}
		for _, d := range m.deps {
			desc.Dependencies = append(desc.Dependencies, label.MustKey(d))
		}
		for _, c := range m.contexts {
			desc.Contexts = append(desc.Contexts, label.MustContext(c))
		}
		if err := cat.Put(desc); err != nil {
			t.Fatalf("Put(%s) error = %v", m.key, err)
		}
	}
	return cat
}

func res(name string) catalog.Resource {
	return catalog.NewResource(name, nil)
}

func resp(name string, params catalog.Params) catalog.Resource {
	return catalog.NewResource(name, params)
}

func keys(ss ...string) []label.Key {
	out := make([]label.Key, len(ss))
	for i, s := range ss {
		out[i] = label.MustKey(s)
	}
	return out
}

func contexts(ss ...string) []label.Context {
	out := make([]label.Context, len(ss))
	for i, s := range ss {
		out[i] = label.MustContext(s)
	}
	return out
}

func keyStrings(ks []label.Key) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.String()
	}
	return out
}

// logBuffer collects text log output safely across goroutines.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// counterValue sums the samples of a counter family gathered from reg.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
