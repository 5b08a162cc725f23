package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/document"
	"seehuhn.de/go/pdf/pagetree"

	"lenscal/internal/report"
	"lenscal/internal/services"
)

func writePage(t *testing.T, path string, size *pdf.Rectangle) {
	t.Helper()
	page, err := document.CreateSinglePage(path, size, pdf.V1_7, nil)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if err := page.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

func pageWidths(t *testing.T, path string) []float64 {
	t.Helper()
	r, err := pdf.Open(path, nil)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer r.Close()
	n, err := pagetree.NumPages(r)
	if err != nil {
		t.Fatalf("count pages: %v", err)
	}
	widths := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		_, dict, err := pagetree.GetPage(r, i)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		box, err := pdf.GetRectangle(r, dict["MediaBox"])
		if err != nil {
			t.Fatalf("media box %d: %v", i, err)
		}
		widths = append(widths, box.URx)
	}
	return widths
}

func TestMergeKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "c.pdf"),
	}
	writePage(t, inputs[0], document.Letter)
	writePage(t, inputs[1], document.A4)
	writePage(t, inputs[2], document.A5)

	output := filepath.Join(dir, "out", "vignetting.pdf")
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		t.Fatal(err)
	}
	doc, err := report.Merge(output, inputs)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if doc.Pages != 3 || doc.Path != output {
		t.Fatalf("unexpected document %+v", doc)
	}
	want := []float64{document.Letter.URx, document.A4.URx, document.A5.URx}
	if diff := cmp.Diff(want, pageWidths(t, output)); diff != "" {
		t.Fatalf("unexpected page order (-want +got):\n%s", diff)
	}
}

func TestMergeCopiesMultiPageInputs(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b.pdf"), filepath.Join(dir, "c.pdf")
	writePage(t, a, document.A4)
	writePage(t, b, document.A5)
	writePage(t, c, document.Letter)

	first := filepath.Join(dir, "ab.pdf")
	if _, err := report.Merge(first, []string{a, b}); err != nil {
		t.Fatalf("first Merge: %v", err)
	}
	output := filepath.Join(dir, "all.pdf")
	doc, err := report.Merge(output, []string{first, c})
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if doc.Pages != 3 {
		t.Fatalf("expected 3 pages, got %d", doc.Pages)
	}
	want := []float64{document.A4.URx, document.A5.URx, document.Letter.URx}
	if diff := cmp.Diff(want, pageWidths(t, output)); diff != "" {
		t.Fatalf("unexpected page order (-want +got):\n%s", diff)
	}
}

func TestMergeZeroInputsWritesNothing(t *testing.T) {
	output := filepath.Join(t.TempDir(), "tca.pdf")
	doc, err := report.Merge(output, nil)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if doc.Pages != 0 {
		t.Fatalf("expected empty document, got %d pages", doc.Pages)
	}
	if _, err := os.Stat(output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no output file, stat err=%v", err)
	}
}

func TestMergeCorruptInputAborts(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.pdf")
	bad := filepath.Join(dir, "b.pdf")
	writePage(t, good, document.A4)
	if err := os.WriteFile(bad, []byte("%PDF-1.7\nthis is not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "report.pdf")
	_, err := report.Merge(output, []string{good, bad})
	var mergeErr *report.MergeError
	if !errors.As(err, &mergeErr) {
		t.Fatalf("expected MergeError, got %v", err)
	}
	if mergeErr.Input != bad {
		t.Fatalf("expected failing input %q, got %q", bad, mergeErr.Input)
	}
	if !errors.Is(err, services.ErrMerge) {
		t.Fatalf("expected merge marker, got %v", err)
	}
	if _, statErr := os.Stat(output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no partial output, stat err=%v", statErr)
	}

	if _, err := report.Merge(output, []string{filepath.Join(dir, "missing.pdf")}); !errors.Is(err, services.ErrMerge) {
		t.Fatalf("expected merge error for missing input, got %v", err)
	}
}

func TestCollectPagesSortsByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"V2.pdf", "V1.pdf", "V1.gp", "V10.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := report.CollectPages(dir)
	if err != nil {
		t.Fatalf("CollectPages returned error: %v", err)
	}
	want := []string{filepath.Join(dir, "V1.pdf"), filepath.Join(dir, "V10.pdf"), filepath.Join(dir, "V2.pdf")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected pages (-want +got):\n%s", diff)
	}

	missing, err := report.CollectPages(filepath.Join(dir, "absent"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected empty result for missing dir, got %v %v", missing, err)
	}
}
