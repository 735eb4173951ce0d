package ocr

import (
	"fmt"
	"strings"
)

// fallbackChain 实际会尝试的后端, 按顺序
var fallbackChain = [...]AcceleratorType{
	AcceleratorGPU,
	AcceleratorCPU,
}

// fallbackStartIndex 请求 GPU/NPU 时从 GPU 开始, 其余只尝试 CPU
func fallbackStartIndex(requested AcceleratorType) int {
	switch requested {
	case AcceleratorGPU, AcceleratorNPU:
		return 0
	default:
		return 1
	}
}

// FallbackCandidates 返回请求某个后端时依次尝试的候选后端.
// NPU 不在候选链中, 请求 NPU 时按 GPU 处理.
func FallbackCandidates(requested AcceleratorType) []AcceleratorType {
	return append([]AcceleratorType(nil), fallbackChain[fallbackStartIndex(requested):]...)
}

func (a AcceleratorType) String() string {
	switch a {
	case AcceleratorNPU:
		return "NPU"
	case AcceleratorGPU:
		return "GPU"
	default:
		return "CPU"
	}
}

// ParseAccelerator 解析后端名称, 不区分大小写
func ParseAccelerator(name string) (AcceleratorType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "GPU":
		return AcceleratorGPU, nil
	case "CPU":
		return AcceleratorCPU, nil
	case "NPU":
		return AcceleratorNPU, nil
	}
	return AcceleratorCPU, fmt.Errorf("未知的加速器类型: %q", name)
}

// MarshalText 以名称形式序列化, 便于写入 JSON 配置
func (a AcceleratorType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AcceleratorType) UnmarshalText(text []byte) error {
	v, err := ParseAccelerator(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
