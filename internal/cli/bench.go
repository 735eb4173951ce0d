package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/up-zero/gotool/imageutil"

	ocr "github.com/getcharzp/go-ppocr"
)

var benchRuns int

type benchSummary struct {
	Accelerator string          `json:"accelerator"`
	Runs        []ocr.Benchmark `json:"runs"`
	Average     ocr.Benchmark   `json:"average"`
	Regions     int             `json:"regions"`
}

func init() {
	benchCmd.Flags().IntVarP(&benchRuns, "runs", "n", 10, "Number of timed runs")
}

var benchCmd = &cobra.Command{
	Use:   "bench [image]",
	Short: "Measure per-call latency on one image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchRuns <= 0 {
			return fmt.Errorf("--runs must be positive")
		}

		img, err := imageutil.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to load image %s: %w", args[0], err)
		}
		rgba := ocr.ToRGBA(img)

		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Destroy()

		summary := benchSummary{Accelerator: engine.ActiveAccelerator().String()}
		for i := 0; i < benchRuns; i++ {
			results := engine.Process(rgba.Pix, rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Stride)
			summary.Regions = len(results)
			summary.Runs = append(summary.Runs, engine.Benchmark())
		}
		summary.Average = averageBenchmark(summary.Runs)

		if getOutputFormat() == "json" {
			return outputJSON(summary)
		}
		for i, bm := range summary.Runs {
			dimColor.Printf("run %d:", i+1)
			printBenchmark(engine.ActiveAccelerator(), bm)
		}
		headerColor.Printf("average over %d runs (%d regions):\n", benchRuns, summary.Regions)
		printBenchmark(engine.ActiveAccelerator(), summary.Average)
		return nil
	},
}

func averageBenchmark(runs []ocr.Benchmark) ocr.Benchmark {
	var avg ocr.Benchmark
	if len(runs) == 0 {
		return avg
	}
	for _, bm := range runs {
		avg.DetectionTimeMs += bm.DetectionTimeMs
		avg.RecognitionTimeMs += bm.RecognitionTimeMs
		avg.TotalTimeMs += bm.TotalTimeMs
	}
	n := float32(len(runs))
	avg.DetectionTimeMs /= n
	avg.RecognitionTimeMs /= n
	avg.TotalTimeMs /= n
	if avg.TotalTimeMs > 0 {
		avg.FPS = 1000 / avg.TotalTimeMs
	}
	return avg
}
