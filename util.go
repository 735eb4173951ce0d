package ocr

import (
	"fmt"
	"os"
	"runtime"
)

// DefaultLibraryPath 根据运行时环境判断加载哪个库文件, 可通过 ONNXRUNTIME_LIB 覆盖
func DefaultLibraryPath() string {
	if p := os.Getenv("ONNXRUNTIME_LIB"); p != "" {
		return p
	}
	return libraryPath("./lib/", runtime.GOOS, runtime.GOARCH)
}

func libraryPath(baseDir, goos, goarch string) string {
	libName := "onnxruntime"

	switch goos {
	case "windows":
		return baseDir + libName + ".dll"
	case "darwin":
		return fmt.Sprintf("%s%s_%s.dylib", baseDir, libName, goarch)
	case "linux", "android":
		return fmt.Sprintf("%s%s_%s.so", baseDir, libName, goarch)
	}
	return baseDir + libName + "_amd64.so"
}
