package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func ReadFloatPairs(filename string) ([][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	var result [][]float64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.Fields(line)

		// Skip empty lines and comments
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}

		// Validate number of columns
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid format in line: %q - expected 2 numbers, got %d", line, len(parts))
		}

		// Convert to float64
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing float in line %q: %w", line, err)
		}

		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing float in line %q: %w", line, err)
		}

		result = append(result, []float64{x, y})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return result, nil
}

func GetFilename(filePath string) string {
	// Get the base name (removes directory components)
	base := filepath.Base(filePath)

	// Remove the extension (everything after last dot)
	ext := filepath.Ext(base)

	// Trim the extension from base name
	nameWithoutExt := strings.TrimSuffix(base, ext)

	return nameWithoutExt
}

// FilePath returns <outputPath><fileSuffix>/<modelName>.<ext>, creating the
// directory, when makeDir is set, and <outputPath><modelName>_<fileSuffix>.<ext> otherwise.
func FilePath(makeDir bool, outputPath string, fileSuffix, modelName, ext string) (string, error) {
	if makeDir && fileSuffix != "" && fileSuffix != "." {
		if err := os.MkdirAll(outputPath+fileSuffix, 0750); err != nil {
			return "", fmt.Errorf("error creating output directory: %w", err)
		}
		return outputPath + fileSuffix + "/" + modelName + "." + ext, nil
	} else {
		return outputPath + modelName + "_" + fileSuffix + "." + ext, nil
	}
}

func OpenFile(makeDir bool, outputPath string, fileSuffix, modelName, ext string) (*os.File, error) {
	path, err := FilePath(makeDir, outputPath, fileSuffix, modelName, ext)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

// OutputPath normalizes a directory name so that file names can be appended to it.
func OutputPath(path string) string {
	if path != "" && path[len(path)-1] != '/' {
		return path + "/"
	}
	return path
}
