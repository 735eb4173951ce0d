package paddle

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"golang.org/x/image/draw"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/internal/onnx"
	"github.com/getcharzp/go-ppocr/internal/util"
)

const (
	recInputName   = "x"
	recImageHeight = 48
	recMinWidth    = 8
	recMaxWidth    = 3200
	// 高宽比超过该值视为竖排文字, 旋转 90 度后识别
	verticalRatio = 1.5
)

// NewTextRecognizer 在指定后端上创建识别器
func NewTextRecognizer(rt *onnx.Config, modelPath, dictPath string, accelerator ocr.AcceleratorType) (*TextRecognizer, error) {
	charset, err := util.LoadCharset(dictPath)
	if err != nil {
		return nil, fmt.Errorf("加载字符集失败: %w", err)
	}

	session, err := newSession(rt, modelPath, accelerator)
	if err != nil {
		return nil, fmt.Errorf("创建识别会话失败: %w", err)
	}
	return &TextRecognizer{
		session: session,
		charset: charset,
	}, nil
}

// Recognize 识别文本框区域
func (r *TextRecognizer) Recognize(pix []byte, width, height, stride int, box ocr.RotatedRect) (ocr.Recognition, error) {
	start := time.Now()

	crop := cropBox(wrapRGBA(pix, width, height, stride), box)
	if crop == nil {
		return ocr.Recognition{ElapsedMs: sinceMs(start)}, nil
	}

	inputData, inputW := preprocessRec(crop)
	output, err := onnx.Run(r.session, recInputName, []int64{1, 3, recImageHeight, int64(inputW)}, inputData)
	if err != nil {
		return ocr.Recognition{ElapsedMs: sinceMs(start)}, fmt.Errorf("识别推理失败: %w", err)
	}

	numClasses := len(r.charset)
	if len(output)%numClasses != 0 {
		return ocr.Recognition{ElapsedMs: sinceMs(start)},
			fmt.Errorf("识别输出长度 %d 与字符集大小 %d 不符", len(output), numClasses)
	}

	text, confidence := ctcDecode(output, len(output)/numClasses, r.charset)
	return ocr.Recognition{
		Text:       text,
		Confidence: confidence,
		ElapsedMs:  sinceMs(start),
	}, nil
}

// Destroy 释放会话
func (r *TextRecognizer) Destroy() {
	if r.session != nil {
		r.session.Destroy()
		r.session = nil
	}
}

// cropBox 裁剪文本框外接矩形, 竖排文字逆时针旋转 90 度; 与图像无交集时返回 nil
func cropBox(src *image.RGBA, box ocr.RotatedRect) *image.RGBA {
	rect := ocr.BoundingRect(box).Intersect(src.Rect)
	if rect.Empty() {
		return nil
	}
	sub := src.SubImage(rect).(*image.RGBA)
	w, h := rect.Dx(), rect.Dy()

	if float64(h) < float64(w)*verticalRatio {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), sub, rect.Min, draw.Src)
		return dst
	}

	rotated := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rotated.SetRGBA(y, w-1-x, sub.RGBAAt(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return rotated
}

// preprocessRec 缩放到固定高度, 归一化到 [-1, 1], BGR 通道顺序
func preprocessRec(crop *image.RGBA) ([]float32, int) {
	w, h := crop.Rect.Dx(), crop.Rect.Dy()
	targetW := int(math.Ceil(float64(recImageHeight) * float64(w) / float64(h)))
	targetW = min(max(targetW, recMinWidth), recMaxWidth)

	resized := image.NewRGBA(image.Rect(0, 0, targetW, recImageHeight))
	draw.BiLinear.Scale(resized, resized.Bounds(), crop, crop.Rect, draw.Src, nil)

	data := make([]float32, 3*recImageHeight*targetW)
	area := recImageHeight * targetW
	for y := 0; y < recImageHeight; y++ {
		for x := 0; x < targetW; x++ {
			i := y*resized.Stride + x*4
			r, g, b := resized.Pix[i], resized.Pix[i+1], resized.Pix[i+2]
			data[0*area+y*targetW+x] = (float32(b)/255 - 0.5) / 0.5
			data[1*area+y*targetW+x] = (float32(g)/255 - 0.5) / 0.5
			data[2*area+y*targetW+x] = (float32(r)/255 - 0.5) / 0.5
		}
	}
	return data, targetW
}

// ctcDecode 贪心 CTC 解码: 跳过空白符(下标 0)和连续重复, 置信度为输出字符最大概率的均值
func ctcDecode(output []float32, seqLen int, charset []string) (string, float32) {
	numClasses := len(charset)
	var sb strings.Builder
	var scoreSum float32
	emitted := 0
	lastIdx := -1

	for i := 0; i < seqLen; i++ {
		step := output[i*numClasses : (i+1)*numClasses]
		maxIdx := 0
		maxVal := float32(-1e9)
		for idx, val := range step {
			if val > maxVal {
				maxVal = val
				maxIdx = idx
			}
		}

		if maxIdx != 0 && maxIdx != lastIdx {
			sb.WriteString(charset[maxIdx])
			scoreSum += maxVal
			emitted++
		}
		lastIdx = maxIdx
	}

	if emitted == 0 {
		return "", 0
	}
	return sb.String(), scoreSum / float32(emitted)
}
