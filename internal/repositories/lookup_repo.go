package repositories

import (
	"context"
	"fmt"

	"github.com/EmerzonBasa/crld/internal/database"
	"github.com/EmerzonBasa/crld/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LookupRepository serves the reference tables behind the upload and filter
// forms.
type LookupRepository struct {
	pool *pgxpool.Pool
}

func NewLookupRepository(db *database.DB) *LookupRepository {
	return &LookupRepository{pool: db.Pool}
}

func (r *LookupRepository) ListCompanies(ctx context.Context) ([]*models.Company, error) {
	query := `SELECT id, name, is_active FROM companies WHERE is_active = TRUE ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := make([]*models.Company, 0)
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(&company.ID, &company.Name, &company.Active); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return companies, nil
}

func (r *LookupRepository) GetCompany(ctx context.Context, id int) (*models.Company, error) {
	query := `SELECT id, name, is_active FROM companies WHERE id = $1`

	var company models.Company
	err := r.pool.QueryRow(ctx, query, id).Scan(&company.ID, &company.Name, &company.Active)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &company, nil
}

func (r *LookupRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, path FROM document_categories ORDER BY path`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Path); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

func (r *LookupRepository) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	query := `SELECT id, name, path FROM document_categories WHERE id = $1`

	var category models.Category
	err := r.pool.QueryRow(ctx, query, id).Scan(&category.ID, &category.Name, &category.Path)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &category, nil
}
