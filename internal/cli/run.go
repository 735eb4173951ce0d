package cli

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/up-zero/gotool/imageutil"

	ocr "github.com/getcharzp/go-ppocr"
	"github.com/getcharzp/go-ppocr/internal/store"
)

var (
	drawPath string
	saveRuns bool
)

type runOutput struct {
	Path        string        `json:"path"`
	Accelerator string        `json:"accelerator"`
	Benchmark   ocr.Benchmark `json:"benchmark"`
	Results     []ocr.Result  `json:"results"`
}

func init() {
	runCmd.Flags().StringVar(&drawPath, "draw", "", "Save an overlay of recognized boxes (single image only)")
	runCmd.Flags().BoolVar(&saveRuns, "save", false, "Store results in the local database")
}

var runCmd = &cobra.Command{
	Use:   "run [image...]",
	Short: "Recognize text in images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if drawPath != "" && len(args) > 1 {
			return fmt.Errorf("--draw accepts a single image")
		}

		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Destroy()

		var db *store.DB
		if saveRuns {
			if db, err = store.NewDB(getStoragePath()); err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
		}

		var outputs []runOutput
		for _, path := range args {
			img, err := imageutil.Open(path)
			if err != nil {
				return fmt.Errorf("failed to load image %s: %w", path, err)
			}

			results := engine.ProcessImage(img)
			out := runOutput{
				Path:        path,
				Accelerator: engine.ActiveAccelerator().String(),
				Benchmark:   engine.Benchmark(),
				Results:     results,
			}

			if db != nil {
				rec, err := toStoreImage(out, img.Bounds())
				if err != nil {
					return err
				}
				if err := db.SaveImage(rec); err != nil {
					return fmt.Errorf("failed to save results: %w", err)
				}
			}
			if drawPath != "" {
				if err := imageutil.Save(drawPath, ocr.DrawResults(img, results), 100); err != nil {
					return fmt.Errorf("failed to save overlay: %w", err)
				}
			}

			if getOutputFormat() == "json" {
				outputs = append(outputs, out)
				continue
			}
			printResults(path, results)
			printBenchmark(engine.ActiveAccelerator(), out.Benchmark)
		}

		if getOutputFormat() == "json" {
			return outputJSON(outputs)
		}
		if drawPath != "" {
			printSuccess("Overlay saved to %s", drawPath)
		}
		return nil
	},
}

// toStoreImage 以绝对路径入库, 与 index 命令保持一致
func toStoreImage(out runOutput, bounds image.Rectangle) (*store.Image, error) {
	absPath, err := filepath.Abs(out.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", out.Path, err)
	}
	return &store.Image{
		Path:        absPath,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Accelerator: out.Accelerator,
		Benchmark:   out.Benchmark,
		Results:     out.Results,
	}, nil
}
