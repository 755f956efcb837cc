// Package uploads stores product images under the static directory with
// sanitized, timestamp-suffixed filenames so repeated uploads never collide.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitize strips any path components and replaces everything outside a safe
// character set, so the stored name is usable on disk and in URLs.
func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "archivo"
	}
	return name
}

// Save writes the uploaded file into staticDir/uploadDir and returns the
// relative reference ("uploads/<name>") to store in the database.
func Save(fh *multipart.FileHeader, staticDir, uploadDir string) (string, error) {
	base := sanitize(fh.Filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102150405"), ext)

	dir := filepath.Join(staticDir, uploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return path.Join(uploadDir, name), nil
}

// Remove deletes a previously stored image given its relative reference.
// A missing file is not an error.
func Remove(staticDir, rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(staticDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
