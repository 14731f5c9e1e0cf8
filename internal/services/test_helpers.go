package services

import (
	"context"
	"io"
	"time"

	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/EmerzonBasa/crld/internal/storage"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc             func(ctx context.Context, id string) (*models.User, error)
	GetActiveByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	ListFunc                func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc              func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePermissionsFunc   func(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error)
	StampLastLoginFunc      func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetActiveByUsernameFunc != nil {
		return m.GetActiveByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePermissions(ctx context.Context, id string, caps models.Capabilities, role string) (*models.User, error) {
	if m.UpdatePermissionsFunc != nil {
		return m.UpdatePermissionsFunc(ctx, id, caps, role)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) StampLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.StampLastLoginFunc != nil {
		return m.StampLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockOTPRepository implements OTPRepository for testing
type MockOTPRepository struct {
	CreateFunc        func(ctx context.Context, challenge *models.OTPChallenge) error
	ConsumeLatestFunc func(ctx context.Context, userID, code string, now time.Time) error
}

func (m *MockOTPRepository) Create(ctx context.Context, challenge *models.OTPChallenge) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, challenge)
	}
	return nil
}

func (m *MockOTPRepository) ConsumeLatest(ctx context.Context, userID, code string, now time.Time) error {
	if m.ConsumeLatestFunc != nil {
		return m.ConsumeLatestFunc(ctx, userID, code, now)
	}
	return models.ErrOTPInvalid
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendOTPEmailFunc func(ctx context.Context, email, code string, expiresAt time.Time) error
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresAt time.Time) error {
	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email, code, expiresAt)
	}
	return nil
}

// MockDocumentRepository implements DocumentRepository for testing
type MockDocumentRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.Document, error)
	InsertFunc         func(ctx context.Context, doc *models.Document) (*models.Document, error)
	MarkDeletedFunc    func(ctx context.Context, id, actor string, at time.Time) error
	RestoreFunc        func(ctx context.Context, id string) error
	HardDeleteFunc     func(ctx context.Context, id string) (string, bool, error)
	ListActiveFunc     func(ctx context.Context, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error)
	ListDeletedFunc    func(ctx context.Context, limit, offset int) ([]*models.Document, error)
	RecentUploadsFunc  func(ctx context.Context, limit int) ([]*models.Document, error)
	StatsFunc          func(ctx context.Context) (*models.DashboardStats, error)
	DistinctYearsFunc  func(ctx context.Context) ([]int, error)
	FilePathExistsFunc func(ctx context.Context, path string) (bool, error)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDocumentRepository) Insert(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, doc)
	}
	return doc, nil
}

func (m *MockDocumentRepository) MarkDeleted(ctx context.Context, id, actor string, at time.Time) error {
	if m.MarkDeletedFunc != nil {
		return m.MarkDeletedFunc(ctx, id, actor, at)
	}
	return nil
}

func (m *MockDocumentRepository) Restore(ctx context.Context, id string) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentRepository) HardDelete(ctx context.Context, id string) (string, bool, error) {
	if m.HardDeleteFunc != nil {
		return m.HardDeleteFunc(ctx, id)
	}
	return "", false, nil
}

func (m *MockDocumentRepository) ListActive(ctx context.Context, filter models.DocumentFilter, limit, offset int) ([]*models.Document, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, filter, limit, offset)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentRepository) ListDeleted(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	if m.ListDeletedFunc != nil {
		return m.ListDeletedFunc(ctx, limit, offset)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentRepository) RecentUploads(ctx context.Context, limit int) ([]*models.Document, error) {
	if m.RecentUploadsFunc != nil {
		return m.RecentUploadsFunc(ctx, limit)
	}
	return []*models.Document{}, nil
}

func (m *MockDocumentRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return &models.DashboardStats{}, nil
}

func (m *MockDocumentRepository) FilePathExists(ctx context.Context, path string) (bool, error) {
	if m.FilePathExistsFunc != nil {
		return m.FilePathExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockDocumentRepository) DistinctYears(ctx context.Context) ([]int, error) {
	if m.DistinctYearsFunc != nil {
		return m.DistinctYearsFunc(ctx)
	}
	return []int{}, nil
}

// MockLookupRepository implements LookupRepository for testing
type MockLookupRepository struct {
	ListCompaniesFunc  func(ctx context.Context) ([]*models.Company, error)
	GetCompanyFunc     func(ctx context.Context, id int) (*models.Company, error)
	ListCategoriesFunc func(ctx context.Context) ([]*models.Category, error)
	GetCategoryFunc    func(ctx context.Context, id int) (*models.Category, error)
}

func (m *MockLookupRepository) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	if m.ListCompaniesFunc != nil {
		return m.ListCompaniesFunc(ctx)
	}
	return []*models.Company{}, nil
}

func (m *MockLookupRepository) GetCompany(ctx context.Context, id int) (*models.Company, error) {
	if m.GetCompanyFunc != nil {
		return m.GetCompanyFunc(ctx, id)
	}
	return &models.Company{ID: id, Name: "Test Company", Active: true}, nil
}

func (m *MockLookupRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return []*models.Category{}, nil
}

func (m *MockLookupRepository) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	if m.GetCategoryFunc != nil {
		return m.GetCategoryFunc(ctx, id)
	}
	return &models.Category{ID: id, Name: "Test Category", Path: "test"}, nil
}

// MockActivityLogRepository implements ActivityLogRepository for testing
type MockActivityLogRepository struct {
	AppendFunc func(ctx context.Context, entry *models.ActivityLogEntry) error
	ListFunc   func(ctx context.Context, limit, offset int) ([]*models.ActivityLogEntry, error)

	Entries []*models.ActivityLogEntry
}

func (m *MockActivityLogRepository) Append(ctx context.Context, entry *models.ActivityLogEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockActivityLogRepository) List(ctx context.Context, limit, offset int) ([]*models.ActivityLogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return m.Entries, nil
}

// MockAccessLogRepository implements AccessLogRepository for testing
type MockAccessLogRepository struct {
	AppendFunc         func(ctx context.Context, entry *models.AccessLogEntry) error
	ListByDocumentFunc func(ctx context.Context, documentID string, limit, offset int) ([]*models.AccessLogEntry, error)

	Entries []*models.AccessLogEntry
}

func (m *MockAccessLogRepository) Append(ctx context.Context, entry *models.AccessLogEntry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockAccessLogRepository) ListByDocument(ctx context.Context, documentID string, limit, offset int) ([]*models.AccessLogEntry, error) {
	if m.ListByDocumentFunc != nil {
		return m.ListByDocumentFunc(ctx, documentID, limit, offset)
	}
	return m.Entries, nil
}

// MockFileStore implements storage.FileStore for testing
type MockFileStore struct {
	SaveFunc   func(originalName string, r io.Reader, maxSize int64) (storage.StoredFile, error)
	OpenFunc   func(path string) (io.ReadCloser, error)
	RemoveFunc func(path string) error
	ListFunc   func() ([]storage.StoredFile, error)

	Removed []string
}

func (m *MockFileStore) Save(originalName string, r io.Reader, maxSize int64) (storage.StoredFile, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(originalName, r, maxSize)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.StoredFile{}, err
	}
	return storage.StoredFile{
		Name: "20240101_000000_" + originalName,
		Path: "uploads/20240101_000000_" + originalName,
		Size: int64(len(data)),
	}, nil
}

func (m *MockFileStore) Open(path string) (io.ReadCloser, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	return nil, models.ErrNotFound
}

func (m *MockFileStore) Remove(path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	m.Removed = append(m.Removed, path)
	return nil
}

func (m *MockFileStore) List() ([]storage.StoredFile, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return []storage.StoredFile{}, nil
}
