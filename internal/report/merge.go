package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/pdfcopy"

	"lenscal/internal/fileutil"
	"lenscal/internal/services"
)

// CalibrationDocument describes a merged report.
type CalibrationDocument struct {
	Path  string
	Pages int
}

// MergeError reports the input that prevented a merge.
type MergeError struct {
	Input string
	Err   error
}

func (e *MergeError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("merge report: %v", e.Err)
	}
	return fmt.Sprintf("merge report: %s: %v", e.Input, e.Err)
}

func (e *MergeError) Unwrap() []error {
	return []error{services.ErrMerge, e.Err}
}

// Merge copies the pages of every input, in order, into output. With no
// inputs nothing is written and an empty document is returned. The output is
// only written once every input has been copied, so a failed merge leaves no
// partial document behind.
func Merge(output string, inputs []string) (CalibrationDocument, error) {
	doc := CalibrationDocument{Path: output}
	if len(inputs) == 0 {
		return doc, nil
	}

	readers := make([]*pdf.Reader, 0, len(inputs))
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()
	version := pdf.V1_0
	for _, name := range inputs {
		r, err := pdf.Open(name, nil)
		if err != nil {
			return CalibrationDocument{}, &MergeError{Input: name, Err: err}
		}
		readers = append(readers, r)
		if v := r.GetMeta().Version; v > version {
			version = v
		}
	}

	var buf bytes.Buffer
	out, err := pdf.NewWriter(&buf, version, nil)
	if err != nil {
		return CalibrationDocument{}, &MergeError{Err: err}
	}
	tree := pagetree.NewWriter(out)

	for i, r := range readers {
		n, err := copyPages(out, tree, r)
		if err != nil {
			return CalibrationDocument{}, &MergeError{Input: inputs[i], Err: err}
		}
		doc.Pages += n
	}

	treeRef, err := tree.Close()
	if err != nil {
		return CalibrationDocument{}, &MergeError{Err: err}
	}
	out.GetMeta().Catalog.Pages = treeRef
	if err := out.Close(); err != nil {
		return CalibrationDocument{}, &MergeError{Err: err}
	}

	if err := fileutil.WriteAtomic(output, buf.Bytes(), 0o644); err != nil {
		return CalibrationDocument{}, &MergeError{Err: err}
	}
	return doc, nil
}

func copyPages(out *pdf.Writer, tree *pagetree.Writer, r *pdf.Reader) (int, error) {
	n, err := pagetree.NumPages(r)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	if n == 0 {
		return 0, errors.New("no pages")
	}
	copier := pdfcopy.NewCopier(out, r)
	for i := 0; i < n; i++ {
		refIn, pageIn, err := pagetree.GetPage(r, i)
		if err != nil {
			return 0, fmt.Errorf("page %d: %w", i+1, err)
		}
		// Annotations may point back into the source page tree.
		delete(pageIn, "Annots")
		pageOut, err := copier.CopyDict(pageIn)
		if err != nil {
			return 0, fmt.Errorf("copy page %d: %w", i+1, err)
		}
		refOut := out.Alloc()
		if refIn != 0 {
			copier.Redirect(refIn, refOut)
		}
		if err := tree.AppendPageRef(refOut, pageOut); err != nil {
			return 0, fmt.Errorf("append page %d: %w", i+1, err)
		}
	}
	return n, nil
}

// CollectPages lists the .pdf files directly inside dir, sorted by name.
func CollectPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrMerge, "report", "collect pages", dir, err)
	}
	var pages []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		pages = append(pages, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(pages)
	return pages, nil
}
