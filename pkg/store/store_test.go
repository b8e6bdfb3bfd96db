package store

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T, data map[string]any) *Engine {
	t.Helper()
	e := New()
	if err := e.Init(data, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return e
}

func TestInitAndGet(t *testing.T) {
	e := newTestEngine(t, map[string]any{
		"user":  map[string]any{"name": "ada", "age": 36},
		"flags": []any{"a", "b"},
		"count": 7,
	})

	want := map[string]any{
		"user":  map[string]any{"name": "ada", "age": float64(36)},
		"flags": []any{"a", "b"},
		"count": float64(7),
	}
	for namespace, expected := range want {
		got := e.Get(namespace)
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("Get(%q) = %#v, want %#v", namespace, got, expected)
		}
	}
}

func TestInitRejectsEmptyData(t *testing.T) {
	e := New()
	if err := e.Init(nil, false); !errors.Is(err, ErrNoInitialData) {
		t.Errorf("Init(nil) = %v, want ErrNoInitialData", err)
	}
	if err := e.Init(map[string]any{}, false); !errors.Is(err, ErrNoInitialData) {
		t.Errorf("Init(empty) = %v, want ErrNoInitialData", err)
	}
}

func TestFailedInitPreservesPriorState(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"v": 1}})

	fired := 0
	if _, err := e.Subscribe("ns", func(any) { fired++ }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := e.Init(nil, false); !errors.Is(err, ErrNoInitialData) {
		t.Fatalf("Init(nil) = %v, want ErrNoInitialData", err)
	}

	if got := e.Get("ns.v"); got != float64(1) {
		t.Errorf("prior storage lost after failed re-init: Get(ns.v) = %#v", got)
	}
	if err := e.Update("ns", map[string]any{"v": 2}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if fired != 1 {
		t.Errorf("prior observers lost after failed re-init: fired = %d, want 1", fired)
	}
}

func TestUnknownNamespace(t *testing.T) {
	e := newTestEngine(t, map[string]any{"known": map[string]any{}})

	if err := e.Update("missing", map[string]any{}, true); !errors.Is(err, ErrUnknownNamespace) {
		t.Errorf("Update(missing) = %v, want ErrUnknownNamespace", err)
	}
	if _, err := e.Subscribe("missing", func(any) {}); !errors.Is(err, ErrUnknownNamespace) {
		t.Errorf("Subscribe(missing) = %v, want ErrUnknownNamespace", err)
	}
	if err := e.Set("missing.x", 1); !errors.Is(err, ErrUnknownNamespace) {
		t.Errorf("Set(missing.x) = %v, want ErrUnknownNamespace", err)
	}
}

func TestUpdateMergeLaw(t *testing.T) {
	initial := map[string]any{"ns": map[string]any{"a": 1, "b": 2}}

	e := newTestEngine(t, initial)
	if err := e.Update("ns", map[string]any{"b": 3}, true); err != nil {
		t.Fatalf("merge update failed: %v", err)
	}
	want := map[string]any{"a": float64(1), "b": float64(3)}
	if got := e.Get("ns"); !reflect.DeepEqual(got, want) {
		t.Errorf("merge result = %#v, want %#v", got, want)
	}

	e = newTestEngine(t, initial)
	if err := e.Update("ns", map[string]any{"b": 3}, false); err != nil {
		t.Fatalf("replace update failed: %v", err)
	}
	want = map[string]any{"b": float64(3)}
	if got := e.Get("ns"); !reflect.DeepEqual(got, want) {
		t.Errorf("replace result = %#v, want %#v", got, want)
	}
}

func TestUpdateMergeRequiresObjects(t *testing.T) {
	e := newTestEngine(t, map[string]any{
		"scalar": 42,
		"obj":    map[string]any{},
	})

	if err := e.Update("scalar", map[string]any{"x": 1}, true); !errors.Is(err, ErrNotMergeable) {
		t.Errorf("merge into scalar = %v, want ErrNotMergeable", err)
	}
	if err := e.Update("obj", "not an object", true); !errors.Is(err, ErrNotMergeable) {
		t.Errorf("merge from scalar = %v, want ErrNotMergeable", err)
	}

	// A failed merge must not fire.
	fired := 0
	if _, err := e.Subscribe("obj", func(any) { fired++ }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	e.Update("obj", 7, true)
	if fired != 0 {
		t.Errorf("failed update fired %d observers, want 0", fired)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "hello", "hello"},
		{"int becomes float", 42, float64(42)},
		{"bool", true, true},
		{"nil", nil, nil},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"neg inf", math.Inf(-1), nil},
		{"list", []any{1, "x"}, []any{float64(1), "x"}},
		{"object", map[string]any{"k": 1}, map[string]any{"k": float64(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, map[string]any{"ns": map[string]any{}})
			if err := e.Set("ns.x", tc.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if got := e.Get("ns.x"); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Get(ns.x) = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestSetCreatesIntermediateContainers(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{}})

	if err := e.Set("ns.a.b.c", "deep"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := e.Get("ns.a.b.c"); got != "deep" {
		t.Errorf("Get(ns.a.b.c) = %#v, want %q", got, "deep")
	}

	// Bare namespace path replaces the value outright.
	if err := e.Set("ns", "flat"); err != nil {
		t.Fatalf("Set(ns) failed: %v", err)
	}
	if got := e.Get("ns"); got != "flat" {
		t.Errorf("Get(ns) = %#v, want %q", got, "flat")
	}
}

func TestSetReplacesScalarAlongPath(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"a": 1}})

	if err := e.Set("ns.a.b", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := e.Get("ns.a.b"); got != true {
		t.Errorf("Get(ns.a.b) = %#v, want true", got)
	}
}

func TestGetUnresolvedPath(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"a": 1}})

	for _, key := range []string{
		"ns.nonexistent.deep",
		"ns.a.b",
		"other",
		"other.x",
	} {
		if got := e.Get(key); got != nil {
			t.Errorf("Get(%q) = %#v, want nil", key, got)
		}
	}
}

func TestGetShallowCopySemantics(t *testing.T) {
	e := newTestEngine(t, map[string]any{
		"ns": map[string]any{"top": 1, "nested": map[string]any{"v": 1}},
	})

	got := e.Get("ns").(map[string]any)
	got["top"] = float64(999)
	if v := e.Get("ns.top"); v != float64(1) {
		t.Errorf("top-level mutation leaked into storage: Get(ns.top) = %#v", v)
	}

	// Nested containers intentionally alias storage (preserved source
	// behavior): mutating them writes through.
	nested := got["nested"].(map[string]any)
	nested["v"] = float64(2)
	if v := e.Get("ns.nested.v"); v != float64(2) {
		t.Errorf("nested aliasing changed: Get(ns.nested.v) = %#v, want 2", v)
	}
}

func TestStorageIndependentOfCallerValue(t *testing.T) {
	caller := map[string]any{"inner": map[string]any{"v": 1}}
	e := newTestEngine(t, map[string]any{"ns": caller})

	caller["inner"].(map[string]any)["v"] = 999
	if got := e.Get("ns.inner.v"); got != float64(1) {
		t.Errorf("storage shares identity with caller value: Get = %#v", got)
	}
}

func TestSubscribeAndFire(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"a": 1}})

	var calls []any
	id, err := e.Subscribe("ns", func(data any) { calls = append(calls, data) })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := e.Update("ns", map[string]any{"a": 2}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("update fired %d times, want 1", len(calls))
	}
	want := map[string]any{"a": float64(2)}
	if !reflect.DeepEqual(calls[0], want) {
		t.Errorf("observer received %#v, want %#v", calls[0], want)
	}

	// Set fires with the namespace's full value, not the nested fragment.
	if err := e.Set("ns.b.c", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("set fired %d more times, want 1", len(calls)-1)
	}
	want = map[string]any{"a": float64(2), "b": map[string]any{"c": true}}
	if !reflect.DeepEqual(calls[1], want) {
		t.Errorf("observer received %#v, want %#v", calls[1], want)
	}

	e.Unsubscribe("ns", id)
	if err := e.Update("ns", map[string]any{"a": 3}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("observer fired after unsubscribe: %d calls", len(calls))
	}
}

func TestFireOrderIsInsertionOrder(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{}})

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		if _, err := e.Subscribe("ns", func(any) { order = append(order, i) }); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	if err := e.Update("ns", map[string]any{"x": 1}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !reflect.DeepEqual(order, []int{0, 1, 2, 3, 4}) {
		t.Errorf("fire order = %v, want insertion order", order)
	}
}

func TestReentrantUpdateSettlesOnLastValue(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"foo": "bar"}})

	triggered := false
	var inner []any
	if _, err := e.Subscribe("ns", func(data any) {
		inner = append(inner, data)
		if !triggered {
			triggered = true
			if err := e.Update("ns", map[string]any{"foo": "second"}, true); err != nil {
				t.Errorf("nested update failed: %v", err)
			}
		}
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	var external []any
	if _, err := e.Subscribe("ns", func(data any) { external = append(external, data) }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := e.Update("ns", map[string]any{"foo": "first"}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	want := map[string]any{"foo": "second"}
	if len(external) == 0 {
		t.Fatal("external observer never fired")
	}
	if last := external[len(external)-1]; !reflect.DeepEqual(last, want) {
		t.Errorf("external observer last received %#v, want %#v", last, want)
	}
	if last := inner[len(inner)-1]; !reflect.DeepEqual(last, want) {
		t.Errorf("self-updating observer last received %#v, want %#v", last, want)
	}
	if got := e.Get("ns"); !reflect.DeepEqual(got, want) {
		t.Errorf("final state = %#v, want %#v", got, want)
	}
}

func TestReinitDiscardsObservers(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{}})

	stale := 0
	if _, err := e.Subscribe("ns", func(any) { stale++ }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := e.Init(map[string]any{"ns": map[string]any{}}, false); err != nil {
		t.Fatalf("re-Init failed: %v", err)
	}
	if err := e.Update("ns", map[string]any{}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if stale != 0 {
		t.Errorf("stale observer fired %d times after re-init, want 0", stale)
	}
}

func TestObserverSelfUnsubscribeMidFire(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{}})

	var firstID string
	firstCalls := 0
	id, err := e.Subscribe("ns", func(any) {
		firstCalls++
		e.Unsubscribe("ns", firstID)
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	firstID = id

	secondCalls := 0
	if _, err := e.Subscribe("ns", func(any) { secondCalls++ }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	e.Update("ns", map[string]any{"x": 1}, true)
	e.Update("ns", map[string]any{"x": 2}, true)

	if firstCalls != 1 {
		t.Errorf("self-unsubscribing observer fired %d times, want 1", firstCalls)
	}
	if secondCalls != 2 {
		t.Errorf("remaining observer fired %d times, want 2", secondCalls)
	}
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{}})

	// Neither unknown ids nor unknown namespaces may panic or error.
	e.Unsubscribe("ns", "never-registered")
	e.Unsubscribe("ghost", "whatever")
}

func TestObserverIDFormat(t *testing.T) {
	e := newTestEngine(t, map[string]any{"cart": map[string]any{}})

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := e.Subscribe("cart", func(any) {})
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		if !strings.HasPrefix(id, "cart-") {
			t.Fatalf("observer id %q lacks namespace prefix", id)
		}
		if seen[id] {
			t.Fatalf("observer id %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestNamespaces(t *testing.T) {
	e := newTestEngine(t, map[string]any{"a": 1, "b": 2})

	names := e.Namespaces()
	if len(names) != 2 {
		t.Fatalf("Namespaces() = %v, want 2 entries", names)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["a"] || !found["b"] {
		t.Errorf("Namespaces() = %v, want a and b", names)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine(t, map[string]any{"ns": map[string]any{"inner": map[string]any{"v": 1}}})

	snap := e.Snapshot()
	snap["ns"].(map[string]any)["inner"].(map[string]any)["v"] = float64(99)
	if got := e.Get("ns.inner.v"); got != float64(1) {
		t.Errorf("snapshot mutation leaked into storage: %#v", got)
	}
}
