package paddle

import (
	"image"
	"image/color"
	"testing"

	ocr "github.com/getcharzp/go-ppocr"
)

func TestCTCDecode(t *testing.T) {
	charset := []string{"blank", "a", "b", " "}
	output := []float32{
		0.05, 0.9, 0.03, 0.02, // a
		0.1, 0.8, 0.05, 0.05, // a 重复
		0.7, 0.1, 0.1, 0.1, // blank
		0.2, 0.6, 0.1, 0.1, // a
		0.2, 0.1, 0.5, 0.2, // b
		0.9, 0.05, 0.03, 0.02, // blank
	}
	text, conf := ctcDecode(output, 6, charset)
	if text != "aab" {
		t.Fatalf("text = %q, want %q", text, "aab")
	}
	if want := float32(0.9+0.6+0.5) / 3; !near(conf, want) {
		t.Fatalf("confidence = %v, want %v", conf, want)
	}
}

func TestCTCDecode_AllBlank(t *testing.T) {
	charset := []string{"blank", "a"}
	text, conf := ctcDecode([]float32{0.9, 0.1, 0.8, 0.2}, 2, charset)
	if text != "" || conf != 0 {
		t.Fatalf("got %q %v", text, conf)
	}
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestCropBox(t *testing.T) {
	src := testImage(50, 40)
	crop := cropBox(src, ocr.RotatedRect{CenterX: 20, CenterY: 10, Width: 20, Height: 6})
	if crop.Rect != image.Rect(0, 0, 20, 6) {
		t.Fatalf("rect = %v", crop.Rect)
	}
	if got := crop.RGBAAt(0, 0); got.R != 10 || got.G != 7 {
		t.Fatalf("top-left pixel = %v, want source (10, 7)", got)
	}
}

func TestCropBox_Vertical(t *testing.T) {
	src := testImage(50, 40)
	crop := cropBox(src, ocr.RotatedRect{CenterX: 10, CenterY: 20, Width: 4, Height: 20})
	if crop.Rect != image.Rect(0, 0, 20, 4) {
		t.Fatalf("rect = %v, want rotated 20x4", crop.Rect)
	}
	// 逆时针旋转: 源图右上角落到左上角
	if got := crop.RGBAAt(0, 0); got.R != 11 || got.G != 10 {
		t.Fatalf("top-left pixel = %v, want source (11, 10)", got)
	}
}

func TestCropBox_Outside(t *testing.T) {
	src := testImage(10, 10)
	if crop := cropBox(src, ocr.RotatedRect{CenterX: 100, CenterY: 100, Width: 10, Height: 10}); crop != nil {
		t.Fatalf("expected nil crop, got %v", crop.Rect)
	}
}

func TestCropBox_PaddedStride(t *testing.T) {
	base := testImage(20, 10)
	stride := base.Stride + 12
	pix := make([]byte, stride*10)
	for y := 0; y < 10; y++ {
		copy(pix[y*stride:], base.Pix[y*base.Stride:(y+1)*base.Stride])
	}
	crop := cropBox(wrapRGBA(pix, 20, 10, stride), ocr.RotatedRect{CenterX: 10, CenterY: 5, Width: 10, Height: 4})
	if got := crop.RGBAAt(0, 0); got.R != 5 || got.G != 3 {
		t.Fatalf("top-left pixel = %v, want source (5, 3)", got)
	}
}

func TestPreprocessRec(t *testing.T) {
	crop := testImage(100, 24)
	data, w := preprocessRec(crop)
	if w != 200 {
		t.Fatalf("width = %d, want 200", w)
	}
	if len(data) != 3*recImageHeight*w {
		t.Fatalf("len = %d", len(data))
	}
	for _, v := range data {
		if v < -1 || v > 1 {
			t.Fatalf("value %v out of [-1, 1]", v)
		}
	}
	// B 通道恒为 7
	if want := (float32(7)/255 - 0.5) / 0.5; !near(data[0], want) {
		t.Fatalf("first B value = %v, want %v", data[0], want)
	}
}

func TestPreprocessRec_MinWidth(t *testing.T) {
	_, w := preprocessRec(testImage(1, 100))
	if w != recMinWidth {
		t.Fatalf("width = %d, want %d", w, recMinWidth)
	}
}

func TestNewSession_RejectsNPU(t *testing.T) {
	if _, err := newSession(nil, "det.onnx", ocr.AcceleratorNPU); err == nil {
		t.Fatal("expected error for NPU")
	}
}
