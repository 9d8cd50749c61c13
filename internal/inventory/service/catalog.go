package service

import (
	"context"

	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// CatalogService handles items and the reference entities they point at.
type CatalogService struct {
	items   *repository.ItemRepository
	catalog *repository.CatalogRepository
	logger  *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *database.DB, log *logger.Logger) *CatalogService {
	return &CatalogService{
		items:   repository.NewItemRepository(db),
		catalog: repository.NewCatalogRepository(db),
		logger:  log,
	}
}

// CreateItem creates a new item
func (s *CatalogService) CreateItem(ctx context.Context, item *repository.InventoryItem) error {
	if item.CategoryID != nil {
		if _, err := s.catalog.GetCategory(ctx, *item.CategoryID); err != nil {
			return err
		}
	}
	if item.SupplierID != nil {
		if _, err := s.catalog.GetSupplier(ctx, *item.SupplierID); err != nil {
			return err
		}
	}

	if err := s.items.Create(ctx, item); err != nil {
		return err
	}

	s.logger.Info().Str("item_id", item.ID).Str("sku", item.SKU).Msg("item created")
	return nil
}

// GetItem gets an item by ID
func (s *CatalogService) GetItem(ctx context.Context, id string) (*repository.InventoryItem, error) {
	return s.items.GetByID(ctx, id)
}

// ListItems lists items with aggregated stock
func (s *CatalogService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]*repository.ItemWithStock, error) {
	return s.items.List(ctx, filter)
}

// ListItemsBelowMinimum lists items at or below their minimum stock
func (s *CatalogService) ListItemsBelowMinimum(ctx context.Context) ([]*repository.ItemWithStock, error) {
	return s.items.ListBelowMinimum(ctx)
}

// UpdateItem updates an item
func (s *CatalogService) UpdateItem(ctx context.Context, item *repository.InventoryItem) error {
	return s.items.Update(ctx, item)
}

// DeleteItem deletes an item
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	return s.items.Delete(ctx, id)
}

// CreateCategory creates a new category
func (s *CatalogService) CreateCategory(ctx context.Context, c *repository.Category) error {
	return s.catalog.CreateCategory(ctx, c)
}

// GetCategory gets a category by ID
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*repository.Category, error) {
	return s.catalog.GetCategory(ctx, id)
}

// ListCategories lists all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]*repository.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// UpdateCategory updates a category
func (s *CatalogService) UpdateCategory(ctx context.Context, c *repository.Category) error {
	return s.catalog.UpdateCategory(ctx, c)
}

// DeleteCategory deletes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.catalog.DeleteCategory(ctx, id)
}

// CreateSupplier creates a new supplier
func (s *CatalogService) CreateSupplier(ctx context.Context, sup *repository.Supplier) error {
	return s.catalog.CreateSupplier(ctx, sup)
}

// GetSupplier gets a supplier by ID
func (s *CatalogService) GetSupplier(ctx context.Context, id string) (*repository.Supplier, error) {
	return s.catalog.GetSupplier(ctx, id)
}

// ListSuppliers lists all suppliers
func (s *CatalogService) ListSuppliers(ctx context.Context) ([]*repository.Supplier, error) {
	return s.catalog.ListSuppliers(ctx)
}

// UpdateSupplier updates a supplier
func (s *CatalogService) UpdateSupplier(ctx context.Context, sup *repository.Supplier) error {
	return s.catalog.UpdateSupplier(ctx, sup)
}

// DeleteSupplier deletes a supplier
func (s *CatalogService) DeleteSupplier(ctx context.Context, id string) error {
	return s.catalog.DeleteSupplier(ctx, id)
}

// CreateLocation creates a new storage location
func (s *CatalogService) CreateLocation(ctx context.Context, l *repository.Location) error {
	return s.catalog.CreateLocation(ctx, l)
}

// GetLocation gets a storage location by ID
func (s *CatalogService) GetLocation(ctx context.Context, id string) (*repository.Location, error) {
	return s.catalog.GetLocation(ctx, id)
}

// ListLocations lists all storage locations
func (s *CatalogService) ListLocations(ctx context.Context) ([]*repository.Location, error) {
	return s.catalog.ListLocations(ctx)
}

// UpdateLocation updates a storage location
func (s *CatalogService) UpdateLocation(ctx context.Context, l *repository.Location) error {
	return s.catalog.UpdateLocation(ctx, l)
}

// DeleteLocation deletes a storage location
func (s *CatalogService) DeleteLocation(ctx context.Context, id string) error {
	return s.catalog.DeleteLocation(ctx, id)
}
