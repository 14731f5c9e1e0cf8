package models

// Company and Category are read-only lookup tables maintained outside this
// service; documents reference them by id.

type Company struct {
	ID     int
	Name   string
	Active bool
}

type Category struct {
	ID   int
	Name string
	Path string
}

// DashboardStats aggregates active documents for the landing page.
type DashboardStats struct {
	TotalDocuments int64
	TotalBytes     int64
	TotalPages     int64
}
