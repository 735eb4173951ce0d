package ocr

import (
	"math"
	"slices"
)

const (
	// 中心点纵向偏差需小于平均高度的 15%, 即同一基线
	mergeAlignRatio = 0.15
	// 横向间距需小于平均高度的 20%, 足以连接字符间隙, 又不会把相邻的独立元素连在一起
	mergeGapRatio = 0.20
)

// mergeNearbyBoxes 合并同一行内相邻的碎片框, 直到一整轮扫描不再发生合并.
// 每次合并后从头重新扫描, 保证传递性的合并在同一轮内完成.
func mergeNearbyBoxes(boxes []RotatedRect) []RotatedRect {
	if len(boxes) < 2 {
		return boxes
	}
	for {
		i, j, ok := findMergePair(boxes)
		if !ok {
			return boxes
		}
		boxes[i] = envelope(boxes[i], boxes[j])
		boxes = slices.Delete(boxes, j, j+1)
	}
}

// findMergePair 返回第一对满足合并条件的下标 (i < j)
func findMergePair(boxes []RotatedRect) (int, int, bool) {
	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if shouldMerge(boxes[i], boxes[j]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func shouldMerge(b1, b2 RotatedRect) bool {
	hAvg := (b1.Height + b2.Height) / 2
	dy := abs32(b1.CenterY - b2.CenterY)
	if dy >= hAvg*mergeAlignRatio {
		return false
	}
	xDist := abs32(b1.CenterX-b2.CenterX) - (b1.Width+b2.Width)/2
	return xDist < hAvg*mergeGapRatio
}

// envelope 两个框的轴对齐外接框, 置信度取较大者
func envelope(b1, b2 RotatedRect) RotatedRect {
	minX := min(b1.CenterX-b1.Width/2, b2.CenterX-b2.Width/2)
	maxX := max(b1.CenterX+b1.Width/2, b2.CenterX+b2.Width/2)
	minY := min(b1.CenterY-b1.Height/2, b2.CenterY-b2.Height/2)
	maxY := max(b1.CenterY+b1.Height/2, b2.CenterY+b2.Height/2)

	merged := b1
	merged.CenterX = (minX + maxX) / 2
	merged.CenterY = (minY + maxY) / 2
	merged.Width = maxX - minX
	merged.Height = maxY - minY
	merged.Confidence = max(b1.Confidence, b2.Confidence)
	return merged
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
