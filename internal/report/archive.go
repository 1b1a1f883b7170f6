package report

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipDir bundles every regular file under dir into a sibling <dir>.zip
// and returns the archive path.
func ZipDir(dir string) (string, error) {
	zipPath := dir + ".zip"
	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", zipPath, err)
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr != nil {
		zw.Close()
		out.Close()
		os.Remove(zipPath)
		return "", fmt.Errorf("bundling %s: %w", dir, walkErr)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finishing %s: %w", zipPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", zipPath, err)
	}

	return zipPath, nil
}
