package storage

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CountPDFPages parses a stored PDF and returns its page count. Parsing is
// best-effort: any error yields 0 and never fails the surrounding upload.
func CountPDFPages(path string) int {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0
	}
	return count
}
