package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/paddle"
)

type Config struct {
	OnnxRuntimeLibPath string              `json:"onnxruntime_lib_path"`
	DetModelPath       string              `json:"det_model_path"`
	RecModelPath       string              `json:"rec_model_path"`
	DictPath           string              `json:"dict_path"`
	Accelerator        ocr.AcceleratorType `json:"accelerator"`
	NumThreads         int                 `json:"num_threads"`
	MinConfidence      float32             `json:"min_confidence"`
	Detection          paddle.DetOptions   `json:"detection"`
}

func DefaultConfig() *Config {
	return &Config{
		OnnxRuntimeLibPath: ocr.DefaultLibraryPath(),
		DetModelPath:       "./paddle_weights/det.onnx",
		RecModelPath:       "./paddle_weights/rec.onnx",
		DictPath:           "./paddle_weights/dict.txt",
		Accelerator:        ocr.AcceleratorGPU,
	}
}

func configPath() string {
	return filepath.Join(getStoragePath(), "config.json")
}

func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

func SaveConfig(config *Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) engineConfig(logger *slog.Logger) paddle.Config {
	return paddle.Config{
		OnnxRuntimeLibPath: c.OnnxRuntimeLibPath,
		NumThreads:         c.NumThreads,
		DetModelPath:       c.DetModelPath,
		RecModelPath:       c.RecModelPath,
		DictPath:           c.DictPath,
		Accelerator:        c.Accelerator,
		MinConfidence:      c.MinConfidence,
		DetOptions:         c.Detection,
		Logger:             logger,
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return outputJSON(config)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the storage directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if err := SaveConfig(config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		printSuccess("Config written to %s", configPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
