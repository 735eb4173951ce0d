package ocr

const (
	warmupIterations = 3
	warmupImageSize  = 128
)

// warmUp 用合成图跑几次检测, 让后端在首次真实调用前完成内核编译和缓存
func (e *Engine) warmUp() {
	e.logger.Debug("开始预热", "iterations", warmupIterations)

	img := warmupImage()
	stride := warmupImageSize * bytesPerPixel
	for i := 0; i < warmupIterations; i++ {
		if _, _, err := e.detector.Detect(img, warmupImageSize, warmupImageSize, stride); err != nil {
			e.logger.Debug("预热检测失败", "iteration", i, "error", err)
		}
	}

	e.logger.Debug("预热完成", "accelerator", e.accelerator)
}

// warmupImage 生成确定性的 RGBA 图案, 非随机也非纯色
func warmupImage() []byte {
	img := make([]byte, warmupImageSize*warmupImageSize*bytesPerPixel)
	for i := 0; i < warmupImageSize*warmupImageSize; i++ {
		img[i*4+0] = uint8((i * 7) % 256)
		img[i*4+1] = uint8((i * 11) % 256)
		img[i*4+2] = uint8((i * 13) % 256)
		img[i*4+3] = 255
	}
	return img
}
