// Package pdfx extracts text and embedded images from PDF documents using
// pdfcpu, pdfcpu has no direct "give me the text" call, so pages are
// extracted to a scratch directory and reassembled.
package pdfx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/compliancecore/certextract/internal/common"
)

// Page is the text content of a single PDF page.
type Page struct {
	PageNumber int
	Text       string
}

// Extractor pulls text and images out of PDF byte content via scratch
// files in a dedicated temp directory.
type Extractor struct {
	tempDir string
}

// NewExtractor creates an Extractor backed by a scratch directory under
// the OS temp dir.
func NewExtractor() *Extractor {
	tempDir := filepath.Join(os.TempDir(), "certextract-pdf")
	os.MkdirAll(tempDir, 0755)
	return &Extractor{tempDir: tempDir}
}

// writeTemp writes content to a uniquely-named scratch file and returns its
// path, along with a cleanup func the caller must defer.
func (e *Extractor) writeTemp(content []byte, prefix string) (string, func(), error) {
	f, err := os.CreateTemp(e.tempDir, prefix+"-*.pdf")
	if err != nil {
		return "", func() {}, fmt.Errorf("pdfx: failed to create scratch file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return "", func() {}, fmt.Errorf("pdfx: failed to write scratch file: %w", err)
	}
	f.Close()
	return path, func() { os.Remove(path) }, nil
}

// PageCount reads the PDF's page count without extracting content.
func (e *Extractor) PageCount(ctx context.Context, content []byte) (int, error) {
	path, cleanup, err := e.writeTemp(content, "count")
	if err != nil {
		return 0, err
	}
	defer cleanup()

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return 0, fmt.Errorf("pdfx: failed to read PDF context: %w", err)
	}
	return pdfCtx.PageCount, nil
}

// ExtractPages extracts per-page text content. Pages with no extractable
// text layer come back with an empty Text, not an error — scanned PDFs are
// expected input, not a failure mode (parse errors degrade to an
// empty text layer).
func (e *Extractor) ExtractPages(ctx context.Context, content []byte) ([]Page, error) {
	logger := common.GetLogger()

	path, cleanup, err := e.writeTemp(content, "extract")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfx: failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(e.tempDir, "pages-*")
	if err != nil {
		return nil, fmt.Errorf("pdfx: failed to create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	pages := make([]Page, 0, pageCount)
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		logger.Warn().Err(err).Msg("pdfx: content extraction failed, returning empty text layer")
		for n := 1; n <= pageCount; n++ {
			pages = append(pages, Page{PageNumber: n})
		}
		return pages, nil
	}

	texts := readNumberedFiles(outDir)
	for n := 1; n <= pageCount; n++ {
		pages = append(pages, Page{PageNumber: n, Text: texts[n]})
	}
	return pages, nil
}

// ExtractText concatenates all pages' text with a page-break marker.
func (e *Extractor) ExtractText(ctx context.Context, content []byte) (string, error) {
	pages, err := e.ExtractPages(ctx, content)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			fmt.Fprintf(&b, "\n\n--- Page %d ---\n\n", p.PageNumber)
		}
		b.WriteString(p.Text)
	}
	return b.String(), nil
}

// ExtractImages pulls embedded raster images out of the PDF (the scanned
// page images on a pdf-scanned/pdf-hybrid document), keyed by page number,
// for use by the QR/EXIF harvester.
func (e *Extractor) ExtractImages(ctx context.Context, content []byte) (map[int][][]byte, error) {
	path, cleanup, err := e.writeTemp(content, "images")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outDir, err := os.MkdirTemp(e.tempDir, "images-*")
	if err != nil {
		return nil, fmt.Errorf("pdfx: failed to create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("pdfx: image extraction failed: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("pdfx: failed to read image output dir: %w", err)
	}

	out := map[int][][]byte{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		page := pageNumberFromFilename(entry.Name())
		out[page] = append(out[page], data)
	}
	return out, nil
}

func readNumberedFiles(dir string) map[int]string {
	out := map[int]string{}
	files, _ := os.ReadDir(dir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			continue
		}
		out[pageNumberFromFilename(file.Name())] = string(content)
	}
	return out
}

// pageNumberFromFilename parses pdfcpu's "page_N" / "Content_page_N" /
// "pageN_Im0" style output names; unparseable names map to page 1 so their
// content isn't silently dropped.
func pageNumberFromFilename(name string) int {
	var n int
	if _, err := fmt.Sscanf(name, "page_%d", &n); err == nil {
		return n
	}
	if _, err := fmt.Sscanf(name, "Content_page_%d", &n); err == nil {
		return n
	}
	if _, err := fmt.Sscanf(name, "page%d_Im", &n); err == nil {
		return n
	}
	return 1
}
