package ocr

import (
	"log/slog"
	"math"
)

// AcceleratorType 推理硬件后端
type AcceleratorType int

const (
	AcceleratorGPU AcceleratorType = 0
	AcceleratorCPU AcceleratorType = 1
	AcceleratorNPU AcceleratorType = 2
)

// RotatedRect 检测出的文本框, 以中心点 + 宽高 + 角度(度) 表示
type RotatedRect struct {
	CenterX    float32 `json:"center_x"`
	CenterY    float32 `json:"center_y"`
	Width      float32 `json:"width"`
	Height     float32 `json:"height"`
	Angle      float32 `json:"angle"`
	Confidence float32 `json:"confidence"`
}

// Area 面积
func (r RotatedRect) Area() float32 {
	return r.Width * r.Height
}

// Corners 按 左上, 右上, 右下, 左下 返回旋转后的四个角点
func (r RotatedRect) Corners() [4][2]float32 {
	rad := float64(r.Angle) * math.Pi / 180
	cosA := float32(math.Cos(rad))
	sinA := float32(math.Sin(rad))
	halfW, halfH := r.Width/2, r.Height/2

	offsets := [4][2]float32{
		{-halfW, -halfH},
		{halfW, -halfH},
		{halfW, halfH},
		{-halfW, halfH},
	}

	var corners [4][2]float32
	for i, o := range offsets {
		corners[i] = [2]float32{
			r.CenterX + o[0]*cosA - o[1]*sinA,
			r.CenterY + o[0]*sinA + o[1]*cosA,
		}
	}
	return corners
}

// Result 单个文本区域的最终识别结果
type Result struct {
	Text       string      `json:"text"`
	Confidence float32     `json:"confidence"`
	Box        RotatedRect `json:"box"`
}

// Benchmark 最近一次 Process 调用的耗时快照, 单位毫秒
type Benchmark struct {
	DetectionTimeMs   float32 `json:"detection_time_ms"`
	RecognitionTimeMs float32 `json:"recognition_time_ms"`
	TotalTimeMs       float32 `json:"total_time_ms"`
	FPS               float32 `json:"fps"`
}

// Recognition 识别器对单个文本框的输出
type Recognition struct {
	Text       string
	Confidence float32
	ElapsedMs  float32
}

// Detector 文本检测器
type Detector interface {
	// Detect 在整张图上检测文本框, 返回文本框和检测耗时(毫秒)
	Detect(pix []byte, width, height, stride int) ([]RotatedRect, float32, error)
	Destroy()
}

// Recognizer 文本识别器
type Recognizer interface {
	Recognize(pix []byte, width, height, stride int, box RotatedRect) (Recognition, error)
	Destroy()
}

// DetectorFactory 在指定后端上创建检测器
type DetectorFactory func(modelPath string, accelerator AcceleratorType) (Detector, error)

// RecognizerFactory 在指定后端上创建识别器
type RecognizerFactory func(modelPath, dictPath string, accelerator AcceleratorType) (Recognizer, error)

// Config 引擎配置
type Config struct {
	DetModelPath  string
	RecModelPath  string
	DictPath      string
	Accelerator   AcceleratorType
	MinConfidence float32 // 低于该置信度的识别结果会被丢弃, 默认 0

	NewDetector   DetectorFactory
	NewRecognizer RecognizerFactory
	Logger        *slog.Logger
}

// Engine OCR 引擎, 非并发安全, 多个并发流水线请各自创建引擎
type Engine struct {
	detector      Detector
	recognizer    Recognizer
	accelerator   AcceleratorType
	minConfidence float32
	benchmark     Benchmark
	logger        *slog.Logger
}
