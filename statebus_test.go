package statebus

import (
	"errors"
	"testing"
)

// The default engine is process-wide state; each test re-Inits it.

func TestDefaultEngineLifecycle(t *testing.T) {
	if err := Init(map[string]any{"ns": map[string]any{"v": 1}}, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	var got any
	id, err := Subscribe("ns", func(data any) { got = data })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := Set("ns.v", 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if Get("ns.v") != float64(2) {
		t.Errorf("Get(ns.v) = %#v, want 2", Get("ns.v"))
	}
	if got == nil {
		t.Error("observer never fired")
	}

	Unsubscribe("ns", id)
	got = nil
	if err := Update("ns", map[string]any{"v": 3}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got != nil {
		t.Error("observer fired after unsubscribe")
	}
}

func TestDefaultEngineErrors(t *testing.T) {
	if err := Init(nil, false); !errors.Is(err, ErrNoInitialData) {
		t.Errorf("Init(nil) = %v, want ErrNoInitialData", err)
	}

	if err := Init(map[string]any{"ns": map[string]any{}}, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := Update("ghost", map[string]any{}, true); !errors.Is(err, ErrUnknownNamespace) {
		t.Errorf("Update(ghost) = %v, want ErrUnknownNamespace", err)
	}
}

func TestConfigureReplacesDefault(t *testing.T) {
	if err := Init(map[string]any{"ns": map[string]any{"v": 1}}, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Configure()
	if got := Get("ns.v"); got != nil {
		t.Errorf("Configure kept old state: Get(ns.v) = %#v", got)
	}
}

func TestBindUsesDefault(t *testing.T) {
	if err := Init(map[string]any{"panel": map[string]any{"open": false}}, false); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	renders := 0
	b := Bind("panel", func(map[string]any) { renders++ })
	if err := b.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer b.Unmount()

	if err := Update("panel", map[string]any{"open": true}, true); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if renders != 2 {
		t.Errorf("renders = %d, want 2 (initial + notification)", renders)
	}
}
