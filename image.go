package ocr

import (
	"image"

	"golang.org/x/image/draw"
)

// ToRGBA 把任意图像转为 4 字节/像素的 RGBA 缓冲区, 已是 *image.RGBA 时直接复用
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// ProcessImage 对解码后的图像执行 Process
func (e *Engine) ProcessImage(img image.Image) []Result {
	rgba := ToRGBA(img)
	return e.Process(rgba.Pix, rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Stride)
}
