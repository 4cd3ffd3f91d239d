package commands

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"MemoGallery/internal/aiclient"
	"MemoGallery/internal/config"
	"MemoGallery/internal/model"
)

// fakeCmd позволяет управлять возвратом ошибок из Run
type fakeCmd struct {
	name, usage, desc string
	run               func(ctx context.Context, cfg *config.Config, args []string) error
}

func (f fakeCmd) Name() string        { return f.name }
func (f fakeCmd) Description() string { return f.desc }
func (f fakeCmd) Usage() string       { return f.usage }
func (f fakeCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	return f.run(ctx, cfg, args)
}

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

// tempConfig — конфиг с базой во временном каталоге
func tempConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{DatabaseDSN: filepath.Join(t.TempDir(), "gallery.db"), BlobMaxSizeMB: 1}
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, int) {
	t.Helper()
	var code int
	out := withStdoutCapture(t, func() { code = Dispatch(context.Background(), cfg, args) })
	return out, code
}

func TestDispatcher_HelpAndUnknown(t *testing.T) {
	out, _ := run(t, &config.Config{})
	if !strings.Contains(out, "Memo Gallery CLI") {
		t.Fatalf("global help expected")
	}

	out, _ = run(t, &config.Config{}, "help")
	if !strings.Contains(out, "Usage:") || !strings.Contains(out, "category-add <name...>") {
		t.Fatalf("usage expected, got: %s", out)
	}
	if !strings.Contains(out, "DATABASE_URI") || !strings.Contains(out, "AI_BASE_URL") {
		t.Fatalf("environment section expected, got: %s", out)
	}

	// имя команды без учёта регистра
	if _, code := run(t, &config.Config{}, "help", "LS"); code != 0 {
		t.Fatalf("expected 0 for help LS, got %d", code)
	}

	if _, code := run(t, &config.Config{}, "help", "ls"); code != 0 {
		t.Fatalf("expected 0 for help ls, got %d", code)
	}

	out, _ = run(t, &config.Config{}, "help", "nope")
	if !strings.Contains(out, "Unknown command") {
		t.Fatalf("unknown command message expected")
	}

	if _, code := run(t, &config.Config{}, "no-such"); code != 2 {
		t.Fatalf("expected 2 for unknown command, got %d", code)
	}
}

func TestDispatcher_RunPaths(t *testing.T) {
	RegisterCmd(fakeCmd{name: "x", usage: "x", run: func(context.Context, *config.Config, []string) error { return nil }})
	if _, code := run(t, &config.Config{}, "x"); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}

	RegisterCmd(fakeCmd{name: "u", usage: "u <arg>", run: func(context.Context, *config.Config, []string) error { return ErrUsage }})
	out, code := run(t, &config.Config{}, "u")
	if !strings.Contains(out, "Usage: u <arg>") || code != 2 {
		t.Fatalf("usage text expected, got %q (%d)", out, code)
	}

	RegisterCmd(fakeCmd{name: "e", usage: "e", run: func(context.Context, *config.Config, []string) error { return fmt.Errorf("boom") }})
	out, code = run(t, &config.Config{}, "e")
	if !strings.Contains(out, "e error: boom") || code != 1 {
		t.Fatalf("error line expected, got: %s", out)
	}

	// запись сохранена, счётчики отстали — не ошибка
	RegisterCmd(fakeCmd{name: "s", usage: "s", run: func(context.Context, *config.Config, []string) error {
		return fmt.Errorf("save m1: %w", model.ErrCountsStale)
	}})
	out, code = run(t, &config.Config{}, "s")
	if code != 0 || !strings.Contains(out, "gallery recount") {
		t.Fatalf("stale warning expected, got %q (%d)", out, code)
	}
}

func TestGalleryCommands_EndToEnd(t *testing.T) {
	cfg := tempConfig(t)
	img := writePNG(t, 30, 20)

	if out, code := run(t, cfg, "category-add", "Road", "Trips"); code != 0 || !strings.Contains(out, "road-trips") {
		t.Fatalf("category-add failed: %s", out)
	}
	if out, code := run(t, cfg, "add", img, "road-trips", "m1"); code != 0 || !strings.Contains(out, "30x20") {
		t.Fatalf("add failed: %s", out)
	}
	if _, code := run(t, cfg, "add", img, "road-trips", "m2"); code != 0 {
		t.Fatalf("second add failed")
	}

	out, _ := run(t, cfg, "categories")
	if !strings.Contains(out, "count=2") {
		t.Fatalf("count=2 expected, got: %s", out)
	}

	out, _ = run(t, cfg, "ls", "road-trips")
	if !strings.Contains(out, "Всего: 2") {
		t.Fatalf("two records expected, got: %s", out)
	}
	out, _ = run(t, cfg, "search", "TRIP")
	if !strings.Contains(out, "m1") || !strings.Contains(out, "m2") {
		t.Fatalf("search results expected, got: %s", out)
	}

	if out, _ := run(t, cfg, "fav", "m1", "toggle"); !strings.Contains(out, "favorite=true") {
		t.Fatalf("toggle expected true, got: %s", out)
	}
	if _, code := run(t, cfg, "fav", "m1", "maybe"); code != 2 {
		t.Fatalf("bad fav mode must be a usage error")
	}

	dst := filepath.Join(t.TempDir(), "out.png")
	if _, code := run(t, cfg, "get", "m1", dst); code != 0 {
		t.Fatalf("get failed")
	}
	want, _ := os.ReadFile(img)
	got, _ := os.ReadFile(dst)
	if !bytes.Equal(want, got) {
		t.Fatalf("payload mismatch")
	}

	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if out, code := run(t, cfg, "export", zipPath, "m1", "m2"); code != 0 || !strings.Contains(out, "Exported 2") {
		t.Fatalf("export failed: %s", out)
	}
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 zip entries, got %d", len(zr.File))
	}
	_ = zr.Close()

	if out, _ := run(t, cfg, "rm", "m1", "missing"); !strings.Contains(out, "Deleted: 2") {
		t.Fatalf("rm reports every attempted id, got: %s", out)
	}
	if _, code := run(t, cfg, "category-rm", "road-trips"); code != 0 {
		t.Fatalf("category-rm failed")
	}
	out, _ = run(t, cfg, "recount")
	if !strings.Contains(out, "Без категории: 1") {
		t.Fatalf("orphan m2 expected, got: %s", out)
	}
	out, _ = run(t, cfg, "stats")
	if !strings.Contains(out, "uncategorized: 1") {
		t.Fatalf("stats expected, got: %s", out)
	}

	if _, code := run(t, cfg, "wipe"); code != 2 {
		t.Fatalf("wipe without --yes must be a usage error")
	}
	if _, code := run(t, cfg, "wipe", "--yes"); code != 0 {
		t.Fatalf("wipe failed")
	}
	if out, _ := run(t, cfg, "ls"); !strings.Contains(out, "Нет записей") {
		t.Fatalf("empty gallery expected, got: %s", out)
	}
}

func TestAdd_Errors(t *testing.T) {
	cfg := tempConfig(t)
	if _, code := run(t, cfg, "add", "only-one-arg"); code != 2 {
		t.Fatalf("usage error expected")
	}
	if _, code := run(t, cfg, "add", filepath.Join(t.TempDir(), "missing.png"), "x"); code != 1 {
		t.Fatalf("missing file must fail")
	}
	txt := filepath.Join(t.TempDir(), "note.txt")
	_ = os.WriteFile(txt, []byte("plain text"), 0o600)
	if out, code := run(t, cfg, "add", txt, "x"); code != 1 || !strings.Contains(out, "invalid record") {
		t.Fatalf("non-media file must be rejected, got %q", out)
	}
}

func TestImportURL_DataURL(t *testing.T) {
	cfg := tempConfig(t)
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 5, 7)))

	out, code := run(t, cfg, "import-url", aiclient.DataURL("image/png", buf.Bytes()), "ai")
	if code != 0 || !strings.Contains(out, "5x7") || !strings.Contains(out, "ai-") {
		t.Fatalf("import failed: %s", out)
	}
}

func TestStatus_Run_Success_Errors_and_Usage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer ts.Close()
	cfg := &config.Config{ServerURL: ts.URL}
	out := withStdoutCapture(t, func() {
		if err := (statusCmd{}).Run(context.Background(), cfg, nil); err != nil {
			t.Fatalf("status ok failed: %v", err)
		}
	})
	if !strings.Contains(out, "Status: ok") {
		t.Fatalf("unexpected output: %s", out)
	}

	ts500 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts500.Close()
	if err := (statusCmd{}).Run(context.Background(), &config.Config{ServerURL: ts500.URL}, nil); err == nil {
		t.Fatalf("status should fail on non-200")
	}

	tsBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer tsBad.Close()
	if err := (statusCmd{}).Run(context.Background(), &config.Config{ServerURL: tsBad.URL}, nil); err == nil {
		t.Fatalf("status must fail on bad json")
	}

	if err := (statusCmd{}).Run(context.Background(), cfg, []string{"extra"}); err != ErrUsage {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}
