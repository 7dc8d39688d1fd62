package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// ReadROM resolves path and reads the whole file. Directories and empty
// files are rejected.
func ReadROM(path string) (fullPath string, data []byte, err error) {
	fullPath, _, err = GetPathInfo(path)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory", fullPath)
	}
	data, err = os.ReadFile(fullPath)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%s is empty", fullPath)
	}
	return fullPath, data, nil
}
