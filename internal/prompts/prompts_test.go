package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()

	want := []string{IDArranger, IDBondPricing, IDClassify, IDDataStrategy, IDDescribe, IDGeneral, IDSceneAnalyzer, IDScriptGenerator}
	got := r.List()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("List() = %v, want %v", got, want)
	}
	for _, id := range want {
		text, err := r.Resolve(id)
		if err != nil || text == "" {
			t.Errorf("Resolve(%s) = %q, %v", id, text, err)
		}
	}
}

func TestGetLatestSkipsDeprecated(t *testing.T) {
	r := NewPromptRegistry()
	r.Register(&Prompt{ID: "p", Version: "1.0.0", Content: "one"})
	r.Register(&Prompt{ID: "p", Version: "2.0.0", Content: "two", Deprecated: true})

	p, err := r.GetLatest("p")
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if p.Content != "one" {
		t.Errorf("GetLatest() = %q, want the non-deprecated version", p.Content)
	}

	if _, err := r.Get("p", "3.0.0"); err == nil {
		t.Error("expected error for missing version")
	}
	if _, err := r.Resolve("missing"); err == nil {
		t.Error("expected error for missing prompt")
	}
}

func TestOverrides(t *testing.T) {
	r := NewBuiltinRegistry()

	if err := r.SetOverride(IDGeneral, "custom"); err != nil {
		t.Fatalf("SetOverride() error = %v", err)
	}
	if got := r.MustResolve(IDGeneral); got != "custom" {
		t.Errorf("Resolve() = %q, want override", got)
	}
	r.ClearOverride(IDGeneral)
	if got := r.MustResolve(IDGeneral); got == "custom" {
		t.Error("override must be cleared")
	}
	if err := r.SetOverride("nope", "x"); err == nil {
		t.Error("expected error overriding unknown prompt")
	}
}

func TestPromptBuilder(t *testing.T) {
	r := NewBuiltinRegistry()

	b, err := NewPromptBuilder(r, IDBondPricing)
	if err != nil {
		t.Fatalf("NewPromptBuilder() error = %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Error("expected unresolved variable error")
	}

	text, err := b.SetVariable("rate_source", RateSourceWebSearch).AddFragment("").AddFragment("Extra.").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(text, "use web_search") || !strings.HasSuffix(text, "\n\nExtra.") {
		t.Errorf("unexpected prompt:\n%s", text)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("classify.md", "  classify differently  \n")
	write("unknown.md", "ignored")
	write("notes.json", "ignored")

	r := NewBuiltinRegistry()
	applied, err := LoadOverrides(r, dir)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}
	if len(applied) != 1 || applied[0] != IDClassify {
		t.Errorf("applied = %v", applied)
	}
	if got := r.MustResolve(IDClassify); got != "classify differently" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestOverrideWatcher(t *testing.T) {
	dir := t.TempDir()
	r := NewBuiltinRegistry()

	w, err := NewOverrideWatcher(dir, r, zap.NewNop())
	if err != nil {
		t.Fatalf("NewOverrideWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "describe.txt")
	if err := os.WriteFile(path, []byte("describe tersely"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return r.MustResolve(IDDescribe) == "describe tersely" })

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return r.MustResolve(IDDescribe) != "describe tersely" })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
