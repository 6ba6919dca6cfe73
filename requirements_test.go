package webresource

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-webresource/label"
)

func TestRequestState_Layers(t *testing.T) {
	rs := NewRequestState()
	rs.RequireModule(label.MustKey("p:a"))
	rs.RequireModule(label.MustKey("p:a"))
	rs.RequireContext(label.MustContext("x"))

	rs.Push()
	if got := rs.Depth(); got != 2 {
		t.Fatalf("Depth() = %d, want 2", got)
	}
	mods, ctxs := rs.Required()
	if len(mods) != 0 || len(ctxs) != 0 {
		t.Errorf("Required() in fresh layer = %v %v, want empty", mods, ctxs)
	}
	rs.RequireModule(label.MustKey("p:inner"))

	if !rs.Pop() {
		t.Fatal("Pop() = false, want true")
	}
	mods, ctxs = rs.Required()
	if diff := cmp.Diff([]string{"p:a"}, keyStrings(mods)); diff != "" {
		t.Errorf("outer modules mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, contextStrings(ctxs)); diff != "" {
		t.Errorf("outer contexts mismatch (-want +got):\n%s", diff)
	}

	if rs.Pop() {
		t.Error("Pop() on the bottom layer = true, want false")
	}
}

func TestRequestState_Take(t *testing.T) {
	rs := NewRequestState()
	rs.RequireModule(label.MustKey("p:a"))
	rs.RequireContext(label.MustContext("x"))

	l, mods, ctxs := rs.take()
	if len(mods) != 1 || len(ctxs) != 1 {
		t.Fatalf("take() = %v %v, want one module and one context", mods, ctxs)
	}
	if mods, ctxs := rs.Required(); len(mods) != 0 || len(ctxs) != 0 {
		t.Errorf("Required() after take = %v %v, want empty", mods, ctxs)
	}
	if !rs.markWritten(l, "/a") {
		t.Error("markWritten() first time = false")
	}
	if rs.markWritten(l, "/a") {
		t.Error("markWritten() second time = true")
	}
}

func TestRequestState_ZeroValue(t *testing.T) {
	var rs RequestState
	rs.RequireModule(label.MustKey("p:a"))
	if mods, _ := rs.Required(); len(mods) != 1 {
		t.Errorf("Required() = %v, want one module", mods)
	}
}

func TestRequestState_Concurrent(t *testing.T) {
	rs := NewRequestState()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rs.RequireModule(label.MustKey("p:a"))
			rs.RequireContext(label.MustContext("x"))
			_, _ = rs.Required()
		}(i)
	}
	wg.Wait()
	mods, ctxs := rs.Required()
	if len(mods) != 1 || len(ctxs) != 1 {
		t.Errorf("Required() = %v %v, want one of each", mods, ctxs)
	}
}

func TestRequestStateFrom(t *testing.T) {
	if got := RequestStateFrom(context.Background()); got != nil {
		t.Errorf("RequestStateFrom(empty) = %v, want nil", got)
	}
	rs := NewRequestState()
	if got := RequestStateFrom(WithRequestState(context.Background(), rs)); got != rs {
		t.Errorf("RequestStateFrom() = %p, want %p", got, rs)
	}
}

func contextStrings(cs []label.Context) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
