package discover

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"modelsetup/internal/manifest"
	"modelsetup/internal/probe"
)

type fakeSource struct {
	models []string
	paths  map[string]string
	shown  []string
}

func (f *fakeSource) ListModels(context.Context) []string { return f.models }

func (f *fakeSource) ModelPath(_ context.Context, model string) (string, bool) {
	f.shown = append(f.shown, model)
	p, ok := f.paths[model]
	return p, ok
}

func makeFile(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return p
}

func TestRunAlphaBeta(t *testing.T) {
	dir := t.TempDir()
	alpha := makeFile(t, dir, "alpha.bin", 10<<20)
	src := &fakeSource{
		models: []string{"alpha", "beta"},
		paths:  map[string]string{"alpha": alpha, "beta": filepath.Join(dir, "gone.bin")},
	}
	var logs, out bytes.Buffer
	output := filepath.Join(dir, "models.json")
	p := &Pipeline{Source: src, Output: output, Log: zerolog.New(&logs), Out: &out}
	m, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(m.Models) != 1 || m.Models[0].Name != "alpha" || m.Models[0].Path != alpha || m.Models[0].Size != "10.0 MB" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	onDisk, err := manifest.Read(output)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(onDisk.Models) != 1 || onDisk.GeneratedBy != manifest.GeneratedBy {
		t.Fatalf("unexpected manifest on disk: %+v", onDisk)
	}
	if !strings.Contains(logs.String(), `"model":"beta"`) || !strings.Contains(logs.String(), `"reason":"missing"`) {
		t.Fatalf("skip of beta not logged: %s", logs.String())
	}
	if !strings.Contains(out.String(), "  - alpha (10.0 MB)") {
		t.Fatalf("summary missing record: %s", out.String())
	}
}

func TestRunNoModels(t *testing.T) {
	output := filepath.Join(t.TempDir(), "models.json")
	p := &Pipeline{Source: &fakeSource{}, Output: output}
	_, err := p.Run(context.Background())
	if !IsNoModels(err) {
		t.Fatalf("expected no-models error, got %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("manifest must not be created")
	}
}

func TestRunNoneResolvedKeepsExistingManifest(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "models.json")
	if err := os.WriteFile(output, []byte("previous"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	src := &fakeSource{
		models: []string{"tagonly", "ghost"},
		paths:  map[string]string{"ghost": filepath.Join(dir, "nope")},
	}
	var logs bytes.Buffer
	p := &Pipeline{Source: src, Output: output, Log: zerolog.New(&logs)}
	_, err := p.Run(context.Background())
	if !IsNoResolvedModels(err) || IsNoModels(err) {
		t.Fatalf("expected no-resolved error, got %v", err)
	}
	b, _ := os.ReadFile(output)
	if string(b) != "previous" {
		t.Fatalf("manifest was modified: %q", b)
	}
	if !strings.Contains(logs.String(), `"reason":"unresolved"`) {
		t.Fatalf("unresolved skip not logged: %s", logs.String())
	}
}

func TestRunPreservesOrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := makeFile(t, dir, "a", 1)
	b := makeFile(t, dir, "b", 2048<<20)
	src := &fakeSource{
		models: []string{"zeta", "alpha", "zeta"},
		paths:  map[string]string{"zeta": a, "alpha": b},
	}
	p := &Pipeline{Source: src, Output: filepath.Join(dir, "models.json")}
	m, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := []string{}
	for _, r := range m.Models {
		got = append(got, r.Name+"="+r.Size)
	}
	want := "zeta=0.0 MB,alpha=2.0 GB,zeta=0.0 MB"
	if strings.Join(got, ",") != want {
		t.Fatalf("got %v, want %s", got, want)
	}
	if strings.Join(src.shown, ",") != "zeta,alpha,zeta" {
		t.Fatalf("unexpected resolve order: %v", src.shown)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	f := makeFile(t, dir, "m", 500<<20)
	src := &fakeSource{models: []string{"m"}, paths: map[string]string{"m": f}}
	output := filepath.Join(dir, "models.json")
	p := &Pipeline{Source: src, Output: output}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(output)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(output)
	if !bytes.Equal(first, second) {
		t.Fatalf("manifest changed between runs:\n%s\n---\n%s", first, second)
	}
	if !bytes.Contains(first, []byte(`"size": "500.0 MB"`)) {
		t.Fatalf("unexpected manifest: %s", first)
	}
}

func TestRunUnknownSize(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{models: []string{"m"}, paths: map[string]string{"m": "/blobs/m"}}
	p := &Pipeline{
		Source: src,
		Output: filepath.Join(dir, "models.json"),
		Probe:  func(string) probe.Result { return probe.Result{Exists: true, Size: probe.Unknown} },
	}
	m, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if m.Models[0].Size != "Unknown" {
		t.Fatalf("unexpected size: %q", m.Models[0].Size)
	}
}

func TestRunWriteFailure(t *testing.T) {
	dir := t.TempDir()
	f := makeFile(t, dir, "m", 1)
	output := filepath.Join(dir, "taken.json")
	if err := os.Mkdir(output, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := &Pipeline{Source: &fakeSource{models: []string{"m"}, paths: map[string]string{"m": f}}, Output: output}
	_, err := p.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "write manifest") {
		t.Fatalf("expected write error, got %v", err)
	}
	if IsNoModels(err) || IsNoResolvedModels(err) {
		t.Fatalf("write failure misclassified: %v", err)
	}
}

func TestRunRejectsUnsupportedOutputBeforeListing(t *testing.T) {
	src := &fakeSource{models: []string{"m"}}
	p := &Pipeline{Source: src, Output: filepath.Join(t.TempDir(), "models.ini")}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(src.shown) != 0 {
		t.Fatalf("models resolved despite bad output path")
	}
}

func TestRunMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	f := makeFile(t, dir, "a", 1)
	src := &fakeSource{
		models: []string{"a", "b", "c"},
		paths:  map[string]string{"a": f, "b": filepath.Join(dir, "missing")},
	}
	metrics := NewMetrics()
	p := &Pipeline{Source: src, Output: filepath.Join(dir, "models.json"), Metrics: metrics}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	prom := filepath.Join(dir, "modelsetup.prom")
	if err := metrics.WriteTextfile(prom); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	b, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{
		"modelsetup_discovery_models_listed_total 3",
		"modelsetup_discovery_models_resolved_total 1",
		`modelsetup_discovery_models_skipped_total{reason="missing"} 1`,
		`modelsetup_discovery_models_skipped_total{reason="unresolved"} 1`,
		"modelsetup_manifest_records 1",
	} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("metrics missing %q:\n%s", want, b)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	if !strings.Contains(ErrNoModels.Error(), "no models found") {
		t.Fatalf("unexpected message: %q", ErrNoModels.Error())
	}
	if got := (noResolvedError{listed: 2}).Error(); !strings.Contains(got, "2 listed") {
		t.Fatalf("unexpected message: %q", got)
	}
}
