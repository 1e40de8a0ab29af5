package fileops

import (
	"fmt"
	"io"
	"os"
)

// atomicReplace writes destPath through a temporary sibling file: fill
// populates the temp file, which is then synced and renamed over the
// destination. On any failure the temp file is removed and destPath is left
// untouched. The new file is created 0644.
func atomicReplace(destPath string, fill func(*os.File) error) error {
	tempPath := destPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	committed := false
	defer func() {
		tempFile.Close()
		if !committed {
			os.Remove(tempPath)
		}
	}()

	if err := fill(tempFile); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	committed = true
	return nil
}

// AtomicCopy copies srcPath to destPath so that the destination either
// appears fully written or not at all. Existing destination files are
// overwritten.
func AtomicCopy(srcPath, destPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	return atomicReplace(destPath, func(tmp *os.File) error {
		if _, err := io.Copy(tmp, srcFile); err != nil {
			return fmt.Errorf("failed to copy file contents: %w", err)
		}
		return nil
	})
}

// AtomicWrite writes data to destPath with the same temp-file-and-rename
// scheme as AtomicCopy. Used for generated documents so an interrupted write
// never leaves a truncated rules file.
func AtomicWrite(destPath string, data []byte) error {
	return atomicReplace(destPath, func(tmp *os.File) error {
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("failed to write contents: %w", err)
		}
		return nil
	})
}

// EnsureDirectoryExists creates a directory and any missing parents (0755).
// Safe to call repeatedly.
func EnsureDirectoryExists(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
