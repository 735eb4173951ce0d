package ocr

import (
	"image"
	"image/color"
	"math"

	"github.com/up-zero/gotool/imageutil"
	"golang.org/x/image/draw"
)

// DrawResults 在图像副本上绘制识别结果的外接框
func DrawResults(img image.Image, results []Result) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	for _, r := range results {
		imageutil.DrawThickRectOutline(dst, BoundingRect(r.Box), color.RGBA{R: 255, A: 255}, 2)
	}
	return dst
}

// BoundingRect 旋转框的轴对齐外接矩形
func BoundingRect(box RotatedRect) image.Rectangle {
	corners := box.Corners()
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, c := range corners {
		minX, maxX = min(minX, c[0]), max(maxX, c[0])
		minY, maxY = min(minY, c[1]), max(maxY, c[1])
	}
	return image.Rect(
		int(math.Floor(float64(minX))),
		int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))),
		int(math.Ceil(float64(maxY))),
	)
}
