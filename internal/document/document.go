// Package document provides page-indexed text access to source documents.
package document

import "errors"

// ErrPageOutOfRange is returned by PageText for a page index the document
// does not have. Callers that tolerate missing pages should substitute
// empty text.
var ErrPageOutOfRange = errors.New("page out of range")

// Document gives page-level access to a document's text. Pages are
// zero-indexed, matching the page numbers in section candidates.
type Document interface {
	NumPages() int
	PageText(pageIndex int) (string, error)
	Close() error
}

// Opener opens a document at a filesystem path. An error means the document
// is missing or corrupt and its scoring task cannot proceed.
type Opener interface {
	Open(path string) (Document, error)
}
