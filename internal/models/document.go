package models

import "time"

// DocumentState is the lifecycle state of a filing. Exactly one state holds
// at any time: Active and Deleted are encoded on the row, Purged means the
// row and the backing file are both gone.
type DocumentState string

const (
	DocStateActive  DocumentState = "active"
	DocStateDeleted DocumentState = "deleted"
	DocStatePurged  DocumentState = "purged"
)

// Document is a scanned PDF filing grouped by company, category, and period.
// The backing file is owned exclusively by the document lifecycle service;
// while a row exists the file's existence implies the row's.
type Document struct {
	ID              string
	CompanyID       int
	CategoryID      int
	AuthorName      string // originating officer's name ("ao_name" in the scans register)
	Description     string
	FileName        string // stored name, timestamp-prefixed
	FilePath        string
	FileSize        int64
	FileType        string
	Year            int
	Month           int
	ScannedDate     *time.Time
	StorageLocation string // physical shelf/box reference
	PageCount       int
	UploadedBy      string
	UploadedAt      time.Time

	Deleted   bool
	DeletedAt *time.Time
	DeletedBy *string
}

// State derives the lifecycle state from the row. A purged document has no
// row, so State never returns DocStatePurged.
func (d *Document) State() DocumentState {
	if d.Deleted {
		return DocStateDeleted
	}
	return DocStateActive
}

// MarkDeleted transitions Active -> Deleted.
func (d *Document) MarkDeleted(actor string, at time.Time) error {
	if d.Deleted {
		return ErrWrongState
	}
	d.Deleted = true
	d.DeletedAt = &at
	d.DeletedBy = &actor
	return nil
}

// MarkRestored transitions Deleted -> Active, clearing both deletion fields
// so a restored document can never carry a stale deletion timestamp.
func (d *Document) MarkRestored() error {
	if !d.Deleted {
		return ErrWrongState
	}
	d.Deleted = false
	d.DeletedAt = nil
	d.DeletedBy = nil
	return nil
}

// DocumentFilter narrows listing queries. Zero values mean "no filter".
type DocumentFilter struct {
	CompanyID  int
	CategoryID int
	Year       int
	Month      int
	Search     string // matches file name, description, or author name
}
