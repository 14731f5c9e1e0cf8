package integration

import (
	"fmt"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
)

// TestCredentials generates unique credentials using a timestamp so that
// repeated runs against the same database never collide.
func TestCredentials(suffix string) (username, email, password string) {
	ts := time.Now().UnixNano()
	username = fmt.Sprintf("test-%d-%s", ts, suffix)
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// FullCapabilities returns all five permission bits set.
func FullCapabilities() models.Capabilities {
	return models.Capabilities{View: true, Edit: true, Upload: true, Delete: true, Print: true}
}

// ViewOnlyCapabilities returns a read-only permission set.
func ViewOnlyCapabilities() models.Capabilities {
	return models.Capabilities{View: true}
}

// PDFContent returns a minimal body with a PDF header. Page counting is
// best-effort, so a stub document is enough for lifecycle tests.
func PDFContent() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}
