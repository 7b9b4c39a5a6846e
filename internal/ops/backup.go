// Package ops holds operational helpers for the server's data: backing up
// and restoring the SQLite database.
package ops

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sidecarSuffixes are the SQLite WAL-mode companions that must travel with
// the main database file for a consistent cold backup.
var sidecarSuffixes = []string{"-wal", "-shm"}

// BackupDatabase writes the database file and any present sidecars into a
// tar.gz archive. Take the backup with the server stopped, or accept that a
// hot copy may need WAL recovery on restore.
func BackupDatabase(dbPath, archivePath string) error {
	dbPath = filepath.Clean(strings.TrimSpace(dbPath))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if dbPath == "" || archivePath == "" {
		return fmt.Errorf("dbPath and archivePath are required")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("stat database: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	paths := []string{dbPath}
	for _, suffix := range sidecarSuffixes {
		p := dbPath + suffix
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}

	for _, p := range paths {
		if err := addFile(tw, p); err != nil {
			return fmt.Errorf("archive %s: %w", p, err)
		}
	}
	return nil
}

func addFile(tw *tar.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(tw, src)
	return err
}

// RestoreDatabase unpacks a backup archive into targetDir. It refuses
// archive entries that would escape the target directory.
func RestoreDatabase(archivePath, targetDir string) error {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if archivePath == "" || targetDir == "" {
		return fmt.Errorf("archivePath and targetDir are required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		rel, err := sanitizeArchiveRelPath(hdr.Name)
		if err != nil {
			return err
		}
		outPath := filepath.Join(targetDir, rel)

		dst, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, tr); err != nil {
			_ = dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}
	return nil
}

func sanitizeArchiveRelPath(name string) (string, error) {
	name = filepath.Clean(strings.TrimSpace(name))
	if name == "." || name == "" {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if filepath.IsAbs(name) || strings.Contains(name, string(filepath.Separator)) {
		return "", fmt.Errorf("invalid archive entry path: %s", name)
	}
	if name == ".." {
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return name, nil
}
