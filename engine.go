package ocr

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

const (
	minBoxArea       = 4.0
	maxBoxesPerFrame = 200
	bytesPerPixel    = 4
)

var (
	// ErrNoAccelerator 候选后端均无法同时创建检测器和识别器
	ErrNoAccelerator = errors.New("no accelerator available")
	// ErrNotInitialized 引擎未初始化或已销毁
	ErrNotInitialized = errors.New("OCR 引擎未初始化")
)

// NewEngine 按回退链初始化引擎, 第一个能同时创建检测器和识别器的后端胜出, 成功后立即预热
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.NewDetector == nil || cfg.NewRecognizer == nil {
		return nil, fmt.Errorf("缺少检测器或识别器构造函数")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for _, accel := range FallbackCandidates(cfg.Accelerator) {
		logger.Debug("尝试初始化加速器", "accelerator", accel)

		detector, err := newDetector(cfg, accel)
		if err != nil {
			logger.Debug("检测器创建失败, 尝试下一个", "accelerator", accel, "error", err)
			lastErr = err
			continue
		}

		recognizer, err := newRecognizer(cfg, accel)
		if err != nil {
			logger.Debug("识别器创建失败, 尝试下一个", "accelerator", accel, "error", err)
			detector.Destroy()
			lastErr = err
			continue
		}

		engine := &Engine{
			detector:      detector,
			recognizer:    recognizer,
			accelerator:   accel,
			minConfidence: cfg.MinConfidence,
			logger:        logger,
		}
		logger.Debug("OCR 引擎初始化完成", "accelerator", accel)

		engine.warmUp()
		return engine, nil
	}

	logger.Error("所有加速器均初始化失败", "requested", cfg.Accelerator, "error", lastErr)
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAccelerator, lastErr)
	}
	return nil, ErrNoAccelerator
}

func newDetector(cfg Config, accel AcceleratorType) (Detector, error) {
	d, err := cfg.NewDetector(cfg.DetModelPath, accel)
	if err != nil {
		return nil, fmt.Errorf("创建检测器失败(%s): %w", accel, err)
	}
	if d == nil {
		return nil, fmt.Errorf("创建检测器失败(%s)", accel)
	}
	return d, nil
}

func newRecognizer(cfg Config, accel AcceleratorType) (Recognizer, error) {
	r, err := cfg.NewRecognizer(cfg.RecModelPath, cfg.DictPath, accel)
	if err != nil {
		return nil, fmt.Errorf("创建识别器失败(%s): %w", accel, err)
	}
	if r == nil {
		return nil, fmt.Errorf("创建识别器失败(%s)", accel)
	}
	return r, nil
}

// Process 检测 -> 合并 -> 面积过滤 -> 按面积降序 -> 逐框识别.
// 任何失败都只会得到空的或部分结果, 不会返回错误.
func (e *Engine) Process(pix []byte, width, height, stride int) []Result {
	if e.detector == nil || e.recognizer == nil {
		e.log().Error("OCR 引擎未正确初始化", "error", ErrNotInitialized)
		return nil
	}
	if err := checkBuffer(pix, width, height, stride); err != nil {
		e.logger.Error("输入图像缓冲区无效", "error", err)
		return nil
	}

	totalStart := time.Now()

	boxes, detMs, err := e.detector.Detect(pix, width, height, stride)
	if err != nil {
		e.logger.Error("文本检测失败", "error", err)
		boxes = nil
	}
	e.benchmark.DetectionTimeMs = detMs

	if len(boxes) == 0 {
		e.finishEmpty(totalStart)
		return nil
	}

	boxes = mergeNearbyBoxes(boxes)

	filtered := make([]RotatedRect, 0, min(len(boxes), maxBoxesPerFrame))
	for _, box := range boxes {
		if box.Area() >= minBoxArea {
			filtered = append(filtered, box)
			if len(filtered) >= maxBoxesPerFrame {
				break
			}
		}
	}

	if len(filtered) == 0 {
		e.finishEmpty(totalStart)
		return nil
	}

	slices.SortStableFunc(filtered, func(a, b RotatedRect) int {
		return cmp.Compare(b.Area(), a.Area())
	})

	results := make([]Result, 0, len(filtered))
	recStart := time.Now()
	for _, box := range filtered {
		rec, err := e.recognizer.Recognize(pix, width, height, stride, box)
		if err != nil {
			e.logger.Error("文本识别失败", "error", err)
			continue
		}
		if rec.Text != "" && rec.Confidence >= e.minConfidence {
			results = append(results, Result{
				Text:       rec.Text,
				Confidence: rec.Confidence,
				Box:        box,
			})
		}
	}
	e.benchmark.RecognitionTimeMs = elapsedMs(recStart)
	e.finishTotal(totalStart)

	e.logger.Debug("OCR 完成",
		"results", len(results),
		"boxes", len(filtered),
		"det_ms", e.benchmark.DetectionTimeMs,
		"rec_ms", e.benchmark.RecognitionTimeMs,
		"rec_ms_per_box", e.benchmark.RecognitionTimeMs/float32(len(filtered)),
		"total_ms", e.benchmark.TotalTimeMs,
	)
	return results
}

// Benchmark 返回最近一次 Process 的耗时快照
func (e *Engine) Benchmark() Benchmark {
	return e.benchmark
}

// ActiveAccelerator 实际使用的后端
func (e *Engine) ActiveAccelerator() AcceleratorType {
	return e.accelerator
}

// Destroy 同时释放检测器和识别器, 之后 Process 只返回空结果
func (e *Engine) Destroy() {
	if e.detector != nil {
		e.detector.Destroy()
	}
	if e.recognizer != nil {
		e.recognizer.Destroy()
	}
	e.detector = nil
	e.recognizer = nil
}

func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func (e *Engine) finishEmpty(totalStart time.Time) {
	e.benchmark.RecognitionTimeMs = 0
	e.finishTotal(totalStart)
}

func (e *Engine) finishTotal(totalStart time.Time) {
	e.benchmark.TotalTimeMs = elapsedMs(totalStart)
	e.benchmark.FPS = fps(e.benchmark.TotalTimeMs)
}

func fps(totalMs float32) float32 {
	if totalMs > 0 {
		return 1000 / totalMs
	}
	return 0
}

func elapsedMs(start time.Time) float32 {
	return float32(time.Since(start).Microseconds()) / 1000
}

func checkBuffer(pix []byte, width, height, stride int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("图像尺寸无效: %dx%d", width, height)
	}
	if stride < width*bytesPerPixel {
		return fmt.Errorf("行跨度 %d 小于 %d", stride, width*bytesPerPixel)
	}
	if need := stride*(height-1) + width*bytesPerPixel; len(pix) < need {
		return fmt.Errorf("缓冲区长度 %d 小于 %d", len(pix), need)
	}
	return nil
}
