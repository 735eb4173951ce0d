package paddle

import (
	"fmt"
	"image"
	"time"

	ort "github.com/getcharzp/onnxruntime_purego"
	"github.com/up-zero/gotool/convertutil"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/internal/onnx"
)

// NewEngine 使用 PP-OCRv5 检测/识别模型创建 OCR 引擎
func NewEngine(cfg Config) (*ocr.Engine, error) {
	if cfg.OnnxRuntimeLibPath == "" {
		cfg.OnnxRuntimeLibPath = ocr.DefaultLibraryPath()
	}

	oc := new(onnx.Config)
	_ = convertutil.CopyProperties(cfg, oc)
	if err := oc.New(); err != nil {
		return nil, err
	}

	ec := ocr.Config{}
	_ = convertutil.CopyProperties(cfg, &ec)
	ec.NewDetector = func(modelPath string, accelerator ocr.AcceleratorType) (ocr.Detector, error) {
		d, err := NewTextDetector(oc, modelPath, accelerator, cfg.DetOptions)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	ec.NewRecognizer = func(modelPath, dictPath string, accelerator ocr.AcceleratorType) (ocr.Recognizer, error) {
		r, err := NewTextRecognizer(oc, modelPath, dictPath, accelerator)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	return ocr.NewEngine(ec)
}

func newSession(rt *onnx.Config, modelPath string, accelerator ocr.AcceleratorType) (*ort.Session, error) {
	switch accelerator {
	case ocr.AcceleratorGPU:
		return rt.NewSession(modelPath, true)
	case ocr.AcceleratorCPU:
		return rt.NewSession(modelPath, false)
	}
	return nil, fmt.Errorf("不支持的加速器: %s", accelerator)
}

// wrapRGBA 直接引用调用方缓冲区, 不拷贝
func wrapRGBA(pix []byte, width, height, stride int) *image.RGBA {
	return &image.RGBA{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func sinceMs(start time.Time) float32 {
	return float32(time.Since(start).Microseconds()) / 1000
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}
