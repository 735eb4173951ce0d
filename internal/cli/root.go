package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/paddle"
)

var (
	outputFormat  string
	storagePath   string
	verbose       bool
	libPath       string
	detModelPath  string
	recModelPath  string
	dictPath      string
	accelerator   string
	numThreads    int
	minConfidence float32
)

var rootCmd = &cobra.Command{
	Use:           "ppocr",
	Short:         "PP-OCRv5 text detection and recognition",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	flags.StringVar(&storagePath, "storage", "", "Override storage path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&libPath, "lib", "", "Path to the onnxruntime shared library")
	flags.StringVar(&detModelPath, "det", "", "Detection model path")
	flags.StringVar(&recModelPath, "rec", "", "Recognition model path")
	flags.StringVar(&dictPath, "dict", "", "Recognition dictionary path")
	flags.StringVar(&accelerator, "accelerator", "", "Preferred accelerator: gpu, cpu, npu")
	flags.IntVar(&numThreads, "threads", 0, "Intra-op thread count (0 = runtime default)")
	flags.Float32Var(&minConfidence, "min-confidence", 0, "Drop results below this confidence")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute 执行命令行
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func getStoragePath() string {
	if storagePath != "" {
		return storagePath
	}
	if p := os.Getenv("PPOCR_STORAGE"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ppocr")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfig 读取配置文件, 再用显式指定的命令行参数覆盖
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("lib") {
		config.OnnxRuntimeLibPath = libPath
	}
	if flags.Changed("det") {
		config.DetModelPath = detModelPath
	}
	if flags.Changed("rec") {
		config.RecModelPath = recModelPath
	}
	if flags.Changed("dict") {
		config.DictPath = dictPath
	}
	if flags.Changed("accelerator") {
		a, err := ocr.ParseAccelerator(accelerator)
		if err != nil {
			return nil, err
		}
		config.Accelerator = a
	}
	if flags.Changed("threads") {
		config.NumThreads = numThreads
	}
	if flags.Changed("min-confidence") {
		config.MinConfidence = minConfidence
	}
	return config, nil
}

func newEngine(cmd *cobra.Command) (*ocr.Engine, error) {
	config, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	engine, err := paddle.NewEngine(config.engineConfig(newLogger()))
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	return engine, nil
}
