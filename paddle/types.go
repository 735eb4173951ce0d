package paddle

import (
	"log/slog"

	ort "github.com/getcharzp/onnxruntime_purego"

	ocr "github.com/getcharzp/go-ppocr"
)

// Config PP-OCRv5 引擎配置
type Config struct {
	OnnxRuntimeLibPath string
	NumThreads         int

	DetModelPath  string
	RecModelPath  string
	DictPath      string
	Accelerator   ocr.AcceleratorType
	MinConfidence float32

	DetOptions DetOptions
	Logger     *slog.Logger
}

// DetOptions DB 检测后处理参数, 零值字段使用默认值
type DetOptions struct {
	Thresh       float32 `json:"thresh,omitempty"`         // 概率图二值化阈值
	BoxThresh    float32 `json:"box_thresh,omitempty"`     // 文本框平均得分阈值
	UnclipRatio  float32 `json:"unclip_ratio,omitempty"`   // 外扩比例
	LimitSideLen int     `json:"limit_side_len,omitempty"` // 输入最长边上限
	MinSize      int     `json:"min_size,omitempty"`       // 最短边下限
	MaxCandidate int     `json:"max_candidate,omitempty"`
}

// TextDetector DB 文本检测器
type TextDetector struct {
	session *ort.Session
	opts    DetOptions
}

// TextRecognizer CTC 文本识别器
type TextRecognizer struct {
	session *ort.Session
	charset []string
}
