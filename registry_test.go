package blockload

import (
	"errors"
	"reflect"
	"testing"
)

func TestRegistryAdd(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Add(".b", Descriptor{Location: "/b/", Stylesheet: "b.css", Script: "b.js", Lazy: true}); err != nil {
		t.Fatalf("Add(.b) error = %v", err)
	}
	if err := reg.Add(".a", Descriptor{Location: "/a/"}); err != nil {
		t.Fatalf("Add(.a) error = %v", err)
	}

	if got := reg.Selectors(); !reflect.DeepEqual(got, []string{".b", ".a"}) {
		t.Errorf("Selectors() = %v, want insertion order", got)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}

	d, ok := reg.Lookup(".b")
	if !ok {
		t.Fatal("Lookup(.b) not found")
	}
	if d.Selector() != ".b" || !d.Lazy || d.Synthetic() || d.Loaded() || d.State() != NotRequested {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if d.StylesheetPath() != "/b/b.css" || d.ScriptPath() != "/b/b.js" {
		t.Errorf("paths = %q, %q", d.StylesheetPath(), d.ScriptPath())
	}

	a, _ := reg.Lookup(".a")
	if a.StylesheetPath() != "" || a.ScriptPath() != "" {
		t.Errorf("empty names should give empty paths, got %q, %q", a.StylesheetPath(), a.ScriptPath())
	}

	if _, ok := reg.Lookup(".missing"); ok {
		t.Error("Lookup(.missing) found a descriptor")
	}
}

func TestRegistryAddErrors(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(".a", Descriptor{}); err != nil {
		t.Fatal(err)
	}

	if err := reg.Add(".a", Descriptor{}); !errors.Is(err, ErrDuplicateSelector) {
		t.Errorf("duplicate Add error = %v, want %v", err, ErrDuplicateSelector)
	}
	if err := reg.Add("div[", Descriptor{}); !errors.Is(err, ErrInvalidSelector) {
		t.Errorf("invalid Add error = %v, want %v", err, ErrInvalidSelector)
	}

	reg.freeze()
	if err := reg.Add(".b", Descriptor{}); !errors.Is(err, ErrRegistryFrozen) {
		t.Errorf("frozen Add error = %v, want %v", err, ErrRegistryFrozen)
	}
	if !IsRegistryError(ErrRegistryFrozen) {
		t.Error("IsRegistryError(ErrRegistryFrozen) = false")
	}
}

func TestRegisterSynthetic(t *testing.T) {
	reg := NewRegistry()
	b := &RecordingBehavior{}
	if err := reg.RegisterSynthetic(".fragment", b); err != nil {
		t.Fatalf("RegisterSynthetic() error = %v", err)
	}

	d, _ := reg.Lookup(".fragment")
	if !d.Synthetic() || !d.Loaded() || d.State() != Loaded {
		t.Errorf("synthetic descriptor state: synthetic=%v loaded=%v state=%v", d.Synthetic(), d.Loaded(), d.State())
	}
	if d.StylesheetPath() != "" || d.ScriptPath() != "" {
		t.Error("synthetic descriptor should carry no paths")
	}
}

func TestRegisterSyntheticReplacesConfigured(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(".fragment", Descriptor{Location: "/f/", Stylesheet: "f.css", Script: "f.js"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(".hero", Descriptor{}); err != nil {
		t.Fatal(err)
	}

	if err := reg.RegisterSynthetic(".fragment", &RecordingBehavior{}); err != nil {
		t.Fatalf("RegisterSynthetic() error = %v", err)
	}
	if got := reg.Selectors(); !reflect.DeepEqual(got, []string{".fragment", ".hero"}) {
		t.Errorf("Selectors() = %v, want the configured position kept", got)
	}
	d, _ := reg.Lookup(".fragment")
	if !d.Synthetic() || d.StylesheetPath() != "" || d.ScriptPath() != "" {
		t.Errorf("configured entry not replaced: %+v", d)
	}

	if err := reg.RegisterSynthetic(".fragment", &RecordingBehavior{}); !errors.Is(err, ErrDuplicateSelector) {
		t.Errorf("second RegisterSynthetic() error = %v, want %v", err, ErrDuplicateSelector)
	}
}

func TestLoadStateString(t *testing.T) {
	tests := map[LoadState]string{
		NotRequested: "not-requested",
		Loading:      "loading",
		Loaded:       "loaded",
		Failed:       "failed",
		LoadState(9): "LoadState(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
