package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadDict 加载字典文件, 每行一个字符
func LoadDict(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开字典文件 %s: %w", path, err)
	}
	defer file.Close()
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取字典文件时出错: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("字典文件为空: %s", path)
	}
	return lines, nil
}

// LoadCharset 加载 CTC 字符集: 下标 0 为空白符, 末尾追加空格
func LoadCharset(path string) ([]string, error) {
	dict, err := LoadDict(path)
	if err != nil {
		return nil, err
	}
	charset := make([]string, 0, len(dict)+2)
	charset = append(charset, "blank")
	charset = append(charset, dict...)
	charset = append(charset, " ")
	return charset, nil
}
