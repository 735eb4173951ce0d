package ocr

import (
	"errors"
	"io"
	"log/slog"
)

type fakeDetector struct {
	boxes     []RotatedRect
	elapsedMs float32
	err       error
	calls     []int // 每次调用的图像宽度
	destroyed bool
}

func (d *fakeDetector) Detect(pix []byte, width, height, stride int) ([]RotatedRect, float32, error) {
	d.calls = append(d.calls, width)
	if d.err != nil {
		return nil, d.elapsedMs, d.err
	}
	return append([]RotatedRect(nil), d.boxes...), d.elapsedMs, nil
}

func (d *fakeDetector) Destroy() { d.destroyed = true }

type fakeRecognizer struct {
	// recognize 按框返回识别结果, 为空时返回固定文本
	recognize func(box RotatedRect) (Recognition, error)
	seen      []RotatedRect
	destroyed bool
}

func (r *fakeRecognizer) Recognize(pix []byte, width, height, stride int, box RotatedRect) (Recognition, error) {
	r.seen = append(r.seen, box)
	if r.recognize != nil {
		return r.recognize(box)
	}
	return Recognition{Text: "text", Confidence: 0.9}, nil
}

func (r *fakeRecognizer) Destroy() { r.destroyed = true }

var errBackend = errors.New("backend unavailable")

// fakeBackends 记录每次构造尝试, failDet/failRec 中的后端构造失败
type fakeBackends struct {
	failDet    map[AcceleratorType]bool
	failRec    map[AcceleratorType]bool
	attempts   []string
	detector   *fakeDetector
	recognizer *fakeRecognizer
	discarded  []*fakeDetector
}

func newFakeBackends() *fakeBackends {
	return &fakeBackends{
		failDet:    map[AcceleratorType]bool{},
		failRec:    map[AcceleratorType]bool{},
		detector:   &fakeDetector{elapsedMs: 1},
		recognizer: &fakeRecognizer{},
	}
}

func (f *fakeBackends) config(requested AcceleratorType) Config {
	return Config{
		DetModelPath: "det.onnx",
		RecModelPath: "rec.onnx",
		DictPath:     "keys.txt",
		Accelerator:  requested,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewDetector: func(modelPath string, accel AcceleratorType) (Detector, error) {
			f.attempts = append(f.attempts, "det:"+accel.String())
			if f.failDet[accel] {
				return nil, errBackend
			}
			d := &fakeDetector{boxes: f.detector.boxes, elapsedMs: f.detector.elapsedMs}
			f.detector = d
			return d, nil
		},
		NewRecognizer: func(modelPath, dictPath string, accel AcceleratorType) (Recognizer, error) {
			f.attempts = append(f.attempts, "rec:"+accel.String())
			if f.failRec[accel] {
				f.discarded = append(f.discarded, f.detector)
				return nil, errBackend
			}
			return f.recognizer, nil
		},
	}
}

func box(cx, cy, w, h, conf float32) RotatedRect {
	return RotatedRect{CenterX: cx, CenterY: cy, Width: w, Height: h, Confidence: conf}
}

func blankImage(width, height int) ([]byte, int) {
	stride := width * 4
	return make([]byte, stride*height), stride
}
