package onnx

import (
	"fmt"
	"slices"
	"sync"

	ort "github.com/getcharzp/onnxruntime_purego"
)

// Config onnxruntime 运行时配置
type Config struct {
	OnnxRuntimeLibPath string
	NumThreads         int

	OnnxEngine *ort.Engine
}

var (
	enginesMu sync.Mutex
	engines   = map[string]*ort.Engine{}
)

// New 加载 onnxruntime 动态库, 同一路径只加载一次
func (c *Config) New() error {
	if c.OnnxRuntimeLibPath == "" {
		return fmt.Errorf("未指定 onnxruntime 库路径")
	}

	enginesMu.Lock()
	defer enginesMu.Unlock()

	if engine, ok := engines[c.OnnxRuntimeLibPath]; ok {
		c.OnnxEngine = engine
		return nil
	}

	engine, err := ort.NewEngine(c.OnnxRuntimeLibPath)
	if err != nil {
		return fmt.Errorf("加载 onnxruntime 失败: %w", err)
	}
	engines[c.OnnxRuntimeLibPath] = engine
	c.OnnxEngine = engine
	return nil
}

// NewSession 创建推理会话, useCUDA 为 true 时挂载 CUDA 执行器, 挂载失败直接返回错误
func (c *Config) NewSession(modelPath string, useCUDA bool) (*ort.Session, error) {
	if c.OnnxEngine == nil {
		return nil, fmt.Errorf("onnxruntime 未初始化")
	}

	options, err := c.OnnxEngine.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("创建会话选项失败: %w", err)
	}
	defer options.Destroy()

	if c.NumThreads > 0 {
		if err := options.SetIntraOpNumThreads(int32(c.NumThreads)); err != nil {
			return nil, fmt.Errorf("设置线程数失败: %w", err)
		}
	}
	if useCUDA {
		if err := options.EnableCUDA(); err != nil {
			return nil, fmt.Errorf("挂载 CUDA 执行器失败: %w", err)
		}
	}

	session, err := c.OnnxEngine.NewSession(modelPath, options)
	if err != nil {
		return nil, fmt.Errorf("创建会话失败 %s: %w", modelPath, err)
	}
	return session, nil
}

// Run 执行单输入的推理, 返回模型第一个输出张量的数据
func Run(session *ort.Session, inputName string, shape []int64, data []float32) ([]float32, error) {
	if session == nil {
		return nil, fmt.Errorf("会话未初始化")
	}
	if len(session.OutputNames) == 0 {
		return nil, fmt.Errorf("模型无输出")
	}

	inputTensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, err
	}
	defer inputTensor.Destroy()

	outputValues, err := session.Run(map[string]*ort.Value{
		inputName: inputTensor,
	})
	if err != nil {
		return nil, fmt.Errorf("推理失败: %w", err)
	}
	defer func() {
		for _, v := range outputValues {
			v.Destroy()
		}
	}()

	return firstOutput(outputValues, session.OutputNames)
}

// firstOutput 按模型声明的输出顺序取第一个输出
func firstOutput(values map[string]*ort.Value, outputNames []string) ([]float32, error) {
	if len(outputNames) == 0 {
		return nil, fmt.Errorf("模型无输出")
	}
	v, ok := values[outputNames[0]]
	if !ok || v == nil {
		return nil, fmt.Errorf("缺少输出 %s", outputNames[0])
	}

	out, err := ort.GetTensorData[float32](v)
	if err != nil {
		return nil, fmt.Errorf("获取输出数据失败: %w", err)
	}
	// 张量销毁后底层内存失效, 先拷贝
	return slices.Clone(out), nil
}
