package document

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// PDFOpener opens PDF files from disk.
type PDFOpener struct{}

// NewPDFOpener returns a new PDFOpener.
func NewPDFOpener() *PDFOpener {
	return &PDFOpener{}
}

// Open opens the PDF at path for page-level reads.
func (o *PDFOpener) Open(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF %s: %w", path, err)
	}
	return &pdfDocument{file: f, reader: r}, nil
}

type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
}

// NumPages returns the page count.
func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

// PageText returns the plain text of the zero-indexed page.
func (d *pdfDocument) PageText(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= d.reader.NumPage() {
		return "", fmt.Errorf("page %d of %d: %w", pageIndex, d.reader.NumPage(), ErrPageOutOfRange)
	}
	// ledongthuc/pdf pages are 1-indexed.
	page := d.reader.Page(pageIndex + 1)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: %w", pageIndex, ErrPageOutOfRange)
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract page %d: %w", pageIndex, err)
	}
	return text, nil
}

// Close releases the underlying file handle.
func (d *pdfDocument) Close() error {
	return d.file.Close()
}
