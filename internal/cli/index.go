package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/up-zero/gotool/imageutil"

	"github.com/getcharzp/go-ppocr/internal/store"
)

var forceIndex bool

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

func init() {
	indexCmd.Flags().BoolVar(&forceIndex, "force", false, "Re-process images that are already indexed")
}

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Recognize every image under a directory and store the results",
	Long:  `Walks the directory, runs OCR on each image one at a time on a single engine, and stores the text for search.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectImages(args[0])
		if err != nil {
			return err
		}

		db, err := store.NewDB(getStoragePath())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		var pending []string
		for _, p := range paths {
			indexed, err := db.IsIndexed(p)
			if err != nil {
				return err
			}
			if forceIndex || !indexed {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			printSuccess("Nothing to index (%d images already indexed).", len(paths))
			return nil
		}

		engine, err := newEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Destroy()

		logger := newLogger()
		processed := 0
		for _, p := range pending {
			img, err := imageutil.Open(p)
			if err != nil {
				logger.Warn("skip unreadable image", "path", p, "error", err)
				continue
			}

			results := engine.ProcessImage(img)
			out := runOutput{
				Path:        p,
				Accelerator: engine.ActiveAccelerator().String(),
				Benchmark:   engine.Benchmark(),
				Results:     results,
			}
			rec, err := toStoreImage(out, img.Bounds())
			if err != nil {
				return err
			}
			if err := db.SaveImage(rec); err != nil {
				return fmt.Errorf("failed to save results for %s: %w", p, err)
			}
			processed++

			if getOutputFormat() != "json" {
				dimColor.Printf("[%d/%d] %s: %d regions, %.1fms\n", processed, len(pending), p, len(results), out.Benchmark.TotalTimeMs)
			}
		}

		if getOutputFormat() == "json" {
			return outputJSON(map[string]any{
				"found":     len(paths),
				"processed": processed,
			})
		}
		printSuccess("Indexed %d of %d images.", processed, len(paths))
		return nil
	},
}

// collectImages 按字典序返回目录下所有图片的绝对路径
func collectImages(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if imageExts[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return paths, nil
}
