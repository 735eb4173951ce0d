package store

import (
	"errors"
	"testing"

	ocr "github.com/getcharzp/go-ppocr"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetImage(t *testing.T) {
	db := openTestDB(t)

	img := &Image{
		Path:        "/photos/receipt.png",
		Width:       640,
		Height:      480,
		Accelerator: "CPU",
		Benchmark:   ocr.Benchmark{DetectionTimeMs: 12.5, RecognitionTimeMs: 30, TotalTimeMs: 50, FPS: 20},
		Results: []ocr.Result{
			{Text: "TOTAL 12.00", Confidence: 0.97, Box: ocr.RotatedRect{CenterX: 100, CenterY: 50, Width: 120, Height: 20, Confidence: 0.8}},
			{Text: "Thanks", Confidence: 0.91, Box: ocr.RotatedRect{CenterX: 90, CenterY: 200, Width: 60, Height: 18, Confidence: 0.7}},
		},
	}
	if err := db.SaveImage(img); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if img.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := db.GetImage(img.ID)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got.Path != img.Path || got.Width != 640 || got.Accelerator != "CPU" || got.Benchmark != img.Benchmark {
		t.Fatalf("got %+v", got)
	}
	if len(got.Results) != 2 || got.Results[0] != img.Results[0] || got.Results[1] != img.Results[1] {
		t.Fatalf("results = %+v", got.Results)
	}
}

func TestSaveImage_ReplacesSamePath(t *testing.T) {
	db := openTestDB(t)

	first := &Image{Path: "a.png", Results: []ocr.Result{{Text: "old"}}}
	if err := db.SaveImage(first); err != nil {
		t.Fatal(err)
	}
	second := &Image{Path: "a.png", Results: []ocr.Result{{Text: "new"}}}
	if err := db.SaveImage(second); err != nil {
		t.Fatal(err)
	}

	if _, err := db.GetImage(first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old record still present: %v", err)
	}
	matches, err := db.Search("old", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Fatalf("stale results still searchable: %+v", matches)
	}
}

func TestIsIndexed(t *testing.T) {
	db := openTestDB(t)
	if ok, err := db.IsIndexed("x.png"); err != nil || ok {
		t.Fatalf("IsIndexed = %v, %v", ok, err)
	}
	if err := db.SaveImage(&Image{Path: "x.png"}); err != nil {
		t.Fatal(err)
	}
	if ok, err := db.IsIndexed("x.png"); err != nil || !ok {
		t.Fatalf("IsIndexed = %v, %v", ok, err)
	}
}

func TestSearch(t *testing.T) {
	db := openTestDB(t)
	for _, img := range []*Image{
		{Path: "1.png", Results: []ocr.Result{{Text: "Invoice 42", Confidence: 0.9}, {Text: "Date"}}},
		{Path: "2.png", Results: []ocr.Result{{Text: "invoice total", Confidence: 0.8}}},
		{Path: "3.png", Results: []ocr.Result{{Text: "menu"}}},
	} {
		if err := db.SaveImage(img); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := db.Search("invoice", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}

	limited, err := db.Search("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d", len(limited))
	}
}

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	db := openTestDB(t)
	for _, img := range []*Image{
		{Path: "1.png", Results: []ocr.Result{{Text: "50% off"}, {Text: "500 items"}}},
		{Path: "2.png", Results: []ocr.Result{{Text: "user_id"}, {Text: "userXid"}}},
		{Path: "3.png", Results: []ocr.Result{{Text: `C:\temp`}, {Text: "C:temp"}}},
	} {
		if err := db.SaveImage(img); err != nil {
			t.Fatal(err)
		}
	}

	cases := []struct {
		query string
		want  string
	}{
		{"0%", "50% off"},
		{"r_i", "user_id"},
		{`:\`, `C:\temp`},
	}
	for _, c := range cases {
		matches, err := db.Search(c.query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", c.query, err)
		}
		if len(matches) != 1 || matches[0].Text != c.want {
			t.Fatalf("Search(%q) = %+v, want only %q", c.query, matches, c.want)
		}
	}
}

func TestGetImage_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetImage("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
