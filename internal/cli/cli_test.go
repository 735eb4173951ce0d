package cli

import (
	"os"
	"path/filepath"
	"slices"
	"image"
	"testing"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/internal/store"
)

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "notes.txt", "sub/c.jpeg"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := collectImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "sub", "c.jpeg"),
	}
	if !slices.Equal(paths, want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	storagePath = t.TempDir()
	t.Cleanup(func() { storagePath = "" })

	config, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if config.Accelerator != ocr.AcceleratorGPU || config.DetModelPath == "" {
		t.Fatalf("unexpected defaults %+v", config)
	}

	config.Accelerator = ocr.AcceleratorCPU
	config.MinConfidence = 0.5
	config.Detection.BoxThresh = 0.7
	if err := SaveConfig(config); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if *loaded != *config {
		t.Fatalf("got %+v, want %+v", loaded, config)
	}

	ec := loaded.engineConfig(nil)
	if ec.Accelerator != ocr.AcceleratorCPU || ec.DetOptions.BoxThresh != 0.7 || ec.MinConfidence != 0.5 {
		t.Fatalf("engine config %+v", ec)
	}
}

func TestGetStoragePath_Env(t *testing.T) {
	t.Setenv("PPOCR_STORAGE", "/tmp/ppocr-test")
	if got := getStoragePath(); got != "/tmp/ppocr-test" {
		t.Fatalf("got %q", got)
	}
}

func TestAverageBenchmark(t *testing.T) {
	avg := averageBenchmark([]ocr.Benchmark{
		{DetectionTimeMs: 10, RecognitionTimeMs: 20, TotalTimeMs: 40},
		{DetectionTimeMs: 20, RecognitionTimeMs: 40, TotalTimeMs: 60},
	})
	want := ocr.Benchmark{DetectionTimeMs: 15, RecognitionTimeMs: 30, TotalTimeMs: 50, FPS: 20}
	if avg != want {
		t.Fatalf("got %+v, want %+v", avg, want)
	}
	if (averageBenchmark(nil) != ocr.Benchmark{}) {
		t.Fatal("empty runs")
	}
}

func TestToStoreImage_MatchesIndexedPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	rec, err := toStoreImage(runOutput{Path: "a.png", Accelerator: "CPU"}, image.Rect(0, 0, 4, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(rec.Path) {
		t.Fatalf("path = %q, want absolute", rec.Path)
	}
	if rec.Width != 4 || rec.Height != 3 {
		t.Fatalf("size = %dx%d, want 4x3", rec.Width, rec.Height)
	}

	db, err := store.NewDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.SaveImage(rec); err != nil {
		t.Fatal(err)
	}

	paths, err := collectImages(".")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Fatalf("collected %v, want one image", paths)
	}
	indexed, err := db.IsIndexed(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if !indexed {
		t.Fatalf("%s should be indexed after run --save", paths[0])
	}
}
