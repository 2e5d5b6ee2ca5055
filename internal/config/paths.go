package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Home returns the root directory for classmap's downloaded tools.
// Priority: $CLASSMAP_HOME -> $XDG_CACHE_HOME/classmap -> ~/.cache/classmap (Unix) / %LOCALAPPDATA%\classmap (Windows)
func Home() (string, error) {
	if home := os.Getenv("CLASSMAP_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "classmap"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "classmap"), nil
	default:
		return filepath.Join(userHome, ".cache", "classmap"), nil
	}
}

// CacheDir returns where release metadata and jars are cached.
// $CLASSMAP_CACHE_DIR wins over Home.
func CacheDir() (string, error) {
	if dir := os.Getenv("CLASSMAP_CACHE_DIR"); dir != "" {
		return dir, nil
	}
	return Home()
}

// JarDir returns the directory holding downloaded PlantUML jars.
func JarDir() (string, error) {
	cache, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "jars"), nil
}

// TmpDir returns the temporary directory for downloads.
func TmpDir() (string, error) {
	cache, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "tmp"), nil
}

// EnsureDirectories creates the cache directories if they don't exist.
func EnsureDirectories() error {
	for _, dirFunc := range []func() (string, error){CacheDir, JarDir, TmpDir} {
		dir, err := dirFunc()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
