package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	ocr "github.com/getcharzp/go-ppocr"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	textColor    = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func getOutputFormat() string {
	if outputFormat == "json" {
		return "json"
	}
	return "text"
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSuccess(format string, args ...any) {
	successColor.Printf(format+"\n", args...)
}

func printError(err error) {
	errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printResults(path string, results []ocr.Result) {
	headerColor.Printf("%s", path)
	dimColor.Printf(" (%d regions)\n", len(results))
	if len(results) == 0 {
		fmt.Println("  No text found.")
		return
	}
	for _, r := range results {
		b := r.Box
		textColor.Printf("  %s", r.Text)
		dimColor.Printf("  conf=%.3f box=(%.0f,%.0f %.0fx%.0f)\n", r.Confidence, b.CenterX, b.CenterY, b.Width, b.Height)
	}
}

func printBenchmark(accel ocr.AcceleratorType, bm ocr.Benchmark) {
	dimColor.Printf("  [%s] det=%.1fms rec=%.1fms total=%.1fms fps=%.1f\n",
		accel, bm.DetectionTimeMs, bm.RecognitionTimeMs, bm.TotalTimeMs, bm.FPS)
}
