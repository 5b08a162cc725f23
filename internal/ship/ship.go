// Package ship bundles the calibration results for submission to the lensfun
// project: the generated XML, the PDF reports and the vignetting preview
// JPEGs, packed into an xz-compressed tar owned by root.
package ship

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"lenscal/internal/fileutil"
)

// Bundle lists the files to pack. Paths are stored relative to Root.
type Bundle struct {
	Root  string
	Files []string
}

// Collect gathers the bundle members under root: the XML file, the optional
// reports and every .jpg in previewDir. Missing reports are skipped.
func Collect(root, xmlPath string, reports []string, previewDir string) (Bundle, error) {
	if xmlPath == "" {
		return Bundle{}, errors.New("no lensfun xml found; run \"lenscal generate-xml\" first")
	}
	bundle := Bundle{Root: root, Files: []string{xmlPath}}
	for _, report := range reports {
		if info, err := os.Stat(report); err == nil && info.Mode().IsRegular() {
			bundle.Files = append(bundle.Files, report)
		}
	}
	entries, err := os.ReadDir(previewDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Bundle{}, fmt.Errorf("list previews: %w", err)
	}
	var previews []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.EqualFold(filepath.Ext(entry.Name()), ".jpg") {
			previews = append(previews, filepath.Join(previewDir, entry.Name()))
		}
	}
	sort.Strings(previews)
	bundle.Files = append(bundle.Files, previews...)
	return bundle, nil
}

// Write packs the bundle into an xz-compressed tar at output. Every entry is
// owned by root:root.
func Write(output string, bundle Bundle) error {
	var buf bytes.Buffer
	xzw, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)
	for _, path := range bundle.Files {
		if err := addFile(tw, bundle.Root, path); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("finish xz: %w", err)
	}
	return fileutil.WriteAtomic(output, buf.Bytes(), 0o644)
}

func addFile(tw *tar.Writer, root, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header %s: %w", path, err)
	}
	name, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(name, "..") {
		name = filepath.Base(path)
	}
	header.Name = filepath.ToSlash(name)
	header.Uid, header.Gid = 0, 0
	header.Uname, header.Gname = "root", "root"
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
