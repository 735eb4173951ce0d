package paddle

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/up-zero/gotool/imageutil"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/internal/onnx"
)

const detInputName = "x"

var (
	detMean = [3]float32{0.485, 0.456, 0.406}
	detStd  = [3]float32{0.229, 0.224, 0.225}
)

func (o DetOptions) withDefaults() DetOptions {
	if o.Thresh <= 0 {
		o.Thresh = 0.3
	}
	if o.BoxThresh <= 0 {
		o.BoxThresh = 0.6
	}
	if o.UnclipRatio <= 0 {
		o.UnclipRatio = 1.5
	}
	if o.LimitSideLen <= 0 {
		o.LimitSideLen = 960
	}
	if o.MinSize <= 0 {
		o.MinSize = 3
	}
	if o.MaxCandidate <= 0 {
		o.MaxCandidate = 1000
	}
	return o
}

// NewTextDetector 在指定后端上创建检测器, 仅支持 GPU(CUDA) 与 CPU
func NewTextDetector(rt *onnx.Config, modelPath string, accelerator ocr.AcceleratorType, opts DetOptions) (*TextDetector, error) {
	session, err := newSession(rt, modelPath, accelerator)
	if err != nil {
		return nil, fmt.Errorf("创建检测会话失败: %w", err)
	}
	return &TextDetector{
		session: session,
		opts:    opts.withDefaults(),
	}, nil
}

// Detect 检测文本框, 坐标为原图像素坐标
func (d *TextDetector) Detect(pix []byte, width, height, stride int) ([]ocr.RotatedRect, float32, error) {
	start := time.Now()

	src := wrapRGBA(pix, width, height, stride)
	inputData, mapW, mapH := d.preprocess(src)

	output, err := onnx.Run(d.session, detInputName, []int64{1, 3, int64(mapH), int64(mapW)}, inputData)
	if err != nil {
		return nil, sinceMs(start), fmt.Errorf("检测推理失败: %w", err)
	}
	if len(output) < mapW*mapH {
		return nil, sinceMs(start), fmt.Errorf("检测输出长度 %d 与输入 %dx%d 不符", len(output), mapW, mapH)
	}

	scaleX := float32(width) / float32(mapW)
	scaleY := float32(height) / float32(mapH)
	boxes := d.postprocess(output[:mapW*mapH], mapW, mapH, scaleX, scaleY, width, height)
	return boxes, sinceMs(start), nil
}

// Destroy 释放会话
func (d *TextDetector) Destroy() {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
}

// resizeDims 最长边不超过 LimitSideLen, 并对齐到 32 的倍数
func (d *TextDetector) resizeDims(srcW, srcH int) (int, int) {
	ratio := 1.0
	if maxSide := max(srcW, srcH); maxSide > d.opts.LimitSideLen {
		ratio = float64(d.opts.LimitSideLen) / float64(maxSide)
	}
	align := func(v int) int {
		r := int(math.Round(float64(v)*ratio/32)) * 32
		return max(r, 32)
	}
	return align(srcW), align(srcH)
}

func (d *TextDetector) preprocess(src image.Image) (data []float32, newW, newH int) {
	newW, newH = d.resizeDims(src.Bounds().Dx(), src.Bounds().Dy())
	resized := imageutil.Resize(src, newW, newH)

	data = make([]float32, 3*newW*newH)
	area := newW * newH
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// 模型按 BGR 训练
			bgr := [3]float32{float32(b >> 8), float32(g >> 8), float32(r >> 8)}
			for c := 0; c < 3; c++ {
				data[c*area+y*newW+x] = (bgr[c]/255 - detMean[c]) / detStd[c]
			}
		}
	}
	return data, newW, newH
}

// postprocess 概率图二值化后按 4 连通区域取外接框, 再外扩并映射回原图
func (d *TextDetector) postprocess(prob []float32, mapW, mapH int, scaleX, scaleY float32, imgW, imgH int) []ocr.RotatedRect {
	visited := make([]bool, len(prob))
	stack := make([]int, 0, 256)
	var boxes []ocr.RotatedRect

	for start := range prob {
		if visited[start] || prob[start] <= d.opts.Thresh {
			continue
		}
		if len(boxes) >= d.opts.MaxCandidate {
			break
		}

		minX, minY, maxX, maxY := mapW, mapH, -1, -1
		var sum float32
		count := 0

		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			x, y := idx%mapW, idx/mapW
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			sum += prob[idx]
			count++

			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || ny < 0 || nx >= mapW || ny >= mapH {
					continue
				}
				ni := ny*mapW + nx
				if !visited[ni] && prob[ni] > d.opts.Thresh {
					visited[ni] = true
					stack = append(stack, ni)
				}
			}
		}

		w := float32(maxX - minX + 1)
		h := float32(maxY - minY + 1)
		if min(w, h) < float32(d.opts.MinSize) {
			continue
		}
		score := sum / float32(count)
		if score < d.opts.BoxThresh {
			continue
		}

		dist := w * h * d.opts.UnclipRatio / (2 * (w + h))
		x1 := clamp((float32(minX)-dist)*scaleX, 0, float32(imgW))
		x2 := clamp((float32(maxX+1)+dist)*scaleX, 0, float32(imgW))
		y1 := clamp((float32(minY)-dist)*scaleY, 0, float32(imgH))
		y2 := clamp((float32(maxY+1)+dist)*scaleY, 0, float32(imgH))
		if x2-x1 < float32(d.opts.MinSize) || y2-y1 < float32(d.opts.MinSize) {
			continue
		}

		boxes = append(boxes, ocr.RotatedRect{
			CenterX:    (x1 + x2) / 2,
			CenterY:    (y1 + y2) / 2,
			Width:      x2 - x1,
			Height:     y2 - y1,
			Confidence: score,
		})
	}
	return boxes
}
