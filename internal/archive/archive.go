package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultName builds the timestamped artifact name used when no output path
// is given.
func DefaultName(now time.Time) string {
	return fmt.Sprintf("sharepoint-list-sync-%s.zip", now.Format("20060102-150405"))
}

// Build zips the given files and directories into outPath. Directories are
// walked recursively, entry names are slash-separated relative paths.
func Build(outPath string, paths []string, logger *slog.Logger) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	count := 0

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat artifact %s: %w", path, err)
		}

		if !info.IsDir() {
			if err := addFile(zw, path, filepath.Base(path)); err != nil {
				return err
			}
			count++
			continue
		}

		base := filepath.Base(path)
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(path, p)
			if err != nil {
				return err
			}
			if err := addFile(zw, p, filepath.ToSlash(filepath.Join(base, rel))); err != nil {
				return err
			}
			count++
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk artifact dir %s: %w", path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", outPath, err)
	}
	logger.Info("Packaged deployment artifacts", "archive", outPath, "files", count)
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}
