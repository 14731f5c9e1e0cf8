package models

import "time"

// Activity kinds recorded by the audit trail.
const (
	ActivityLogin           = "login"
	ActivityLogout          = "logout"
	ActivityUpload          = "upload"
	ActivityDelete          = "delete"
	ActivityRestore         = "restore"
	ActivityPermanentDelete = "permanent_delete"
	ActivityUserCreated     = "user_created"
	ActivityUserUpdated     = "user_updated"
)

// Document access action kinds.
const (
	AccessView    = "view"
	AccessPrint   = "print"
	AccessDelete  = "delete"
	AccessRestore = "restore"
)

// ActivityLogEntry is an immutable record of an actor action. Entries are
// append-only and never updated or deleted.
type ActivityLogEntry struct {
	ID          string
	UserID      string
	Kind        string
	Description string
	Origin      string // client IP address
	CreatedAt   time.Time
}

// AccessLogEntry is an immutable record of a document access.
type AccessLogEntry struct {
	ID         string
	DocumentID string
	UserID     string
	Action     string
	Origin     string
	CreatedAt  time.Time
}
