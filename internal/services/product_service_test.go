package services_test

import (
	"fmt"
	"testing"

	"gemstock/internal/models"
	"gemstock/internal/repositories"
	"gemstock/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of
// repositories.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(filters models.ProductFilters, offset, limit int) ([]models.Product, int64, error) {
	args := m.Called(filters, offset, limit)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockProductRepository) CountBySKU(sku, excludeID string) (int64, error) {
	args := m.Called(sku, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Categories() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) FindByStatus(statuses ...models.ProductStatus) ([]models.Product, error) {
	args := m.Called(statuses)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) All() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func TestProductService_Create_DerivesStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("CountBySKU", "GR-001", "").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.Create(models.CreateProductRequest{
		Name: "Gold Ring", SKU: "GR-001", Price: 500, Stock: 3,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusLowStock, product.Status)
	assert.Equal(t, "general", product.Category, "category defaults to general")
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create_ZeroStockIsOutOfStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("CountBySKU", "BN-002", "").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.Create(models.CreateProductRequest{
		Name: "Bracelet", SKU: "BN-002", Price: 120, Stock: 0,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusOutOfStock, product.Status)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create_CollectsAllViolations(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	_, err := service.Create(models.CreateProductRequest{
		Name: "", SKU: "", Price: -1, Stock: -1,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Validation errors: ")
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "sku is required")
	assert.Contains(t, err.Error(), "price must be non-negative")
	assert.Contains(t, err.Error(), "stock must be non-negative")
	// No store round trip on validation failure.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_Create_NegativeStockMentionsStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	_, err := service.Create(models.CreateProductRequest{
		Name: "Silver Chain", SKU: "SC-003", Price: 80, Stock: -1,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stock")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_Create_DuplicateSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("CountBySKU", "DUP-1", "").Return(int64(1), nil).Once()

	_, err := service.Create(models.CreateProductRequest{
		Name: "Second Ring", SKU: "DUP-1", Price: 100, Stock: 5,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SKU must be unique")
	assert.Contains(t, err.Error(), "SKU DUP-1 already exists")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestProductService_Create_UniqueIndexBackstop(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// Pre-check passes (race window), the store's unique index rejects the
	// write; the conflict surfaces with the same phrase.
	mockRepo.On("CountBySKU", "DUP-2", "").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).
		Return(fmt.Errorf("%w: DUP-2", repositories.ErrDuplicateSKU)).Once()

	_, err := service.Create(models.CreateProductRequest{
		Name: "Racy Ring", SKU: "DUP-2", Price: 100, Stock: 5,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SKU must be unique")
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create_PreCheckErrorFallsThroughToIndex(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// The pre-check query failing is logged and ignored; the write proceeds
	// and the unique index remains the enforcement point.
	mockRepo.On("CountBySKU", "OK-9", "").Return(int64(0), fmt.Errorf("column does not exist")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := service.Create(models.CreateProductRequest{
		Name: "Opal Pin", SKU: "OK-9", Price: 45, Stock: 20,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusActive, product.Status)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create_PublishesEvent(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockPub := new(MockPublisher)
	service := services.NewProductService(mockRepo, mockPub)

	mockRepo.On("CountBySKU", "EV-1", "").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	mockPub.On("Publish", "inventory", "product.created", mock.Anything).Return(nil).Once()

	_, err := service.Create(models.CreateProductRequest{
		Name: "Event Ring", SKU: "EV-1", Price: 10, Stock: 50,
	})

	assert.NoError(t, err)
	mockPub.AssertExpectations(t)
}

func TestProductService_Get(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{
		ID: "p-1", Name: "Pearl Necklace", SKU: "PN-001",
		Images: []string{"https://cdn.example.com/pearl.jpg", "https://cdn.example.com/pearl2.jpg"},
	}
	mockRepo.On("GetByID", "p-1").Return(stored, nil).Once()

	product, err := service.Get("p-1")
	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/pearl.jpg", product.Image, "display image is images[0]")

	// Absence is (nil, nil), not an error.
	mockRepo.On("GetByID", "missing").Return(nil, nil).Once()
	product, err = service.Get("missing")
	assert.NoError(t, err)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Update_OwnSKUAllowed(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{ID: "p-1", Name: "Gold Ring", SKU: "GR-001", Price: 500, Stock: 3, Status: models.StatusLowStock}
	mockRepo.On("GetByID", "p-1").Return(stored, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	sku := "GR-001"
	price := 550.0
	product, err := service.Update("p-1", models.UpdateProductRequest{SKU: &sku, Price: &price})

	assert.NoError(t, err)
	assert.Equal(t, 550.0, product.Price)
	// Same SKU as the record itself: no uniqueness round trip.
	mockRepo.AssertNotCalled(t, "CountBySKU", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Update_ForeignSKUConflicts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{ID: "p-1", Name: "Gold Ring", SKU: "GR-001", Price: 500, Stock: 3}
	mockRepo.On("GetByID", "p-1").Return(stored, nil).Once()
	mockRepo.On("CountBySKU", "SR-002", "p-1").Return(int64(1), nil).Once()

	sku := "SR-002"
	_, err := service.Update("p-1", models.UpdateProductRequest{SKU: &sku})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SKU must be unique")
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("GetByID", "ghost").Return(nil, nil).Once()

	name := "Renamed"
	_, err := service.Update("ghost", models.UpdateProductRequest{Name: &name})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestProductService_Update_RecomputesStatusFromEffectiveStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// Stock not supplied: status recomputed from the prior value.
	stored := &models.Product{ID: "p-1", Name: "Gold Ring", SKU: "GR-001", Price: 500, Stock: 0, Status: models.StatusActive}
	mockRepo.On("GetByID", "p-1").Return(stored, nil).Once()
	mockRepo.On("Update", mock.MatchedBy(func(p *models.Product) bool {
		return p.Status == models.StatusOutOfStock
	})).Return(nil).Once()

	name := "Gold Ring 18k"
	product, err := service.Update("p-1", models.UpdateProductRequest{Name: &name})

	assert.NoError(t, err)
	assert.Equal(t, models.StatusOutOfStock, product.Status)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateStock(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{ID: "p-1", Name: "Bracelet", SKU: "BN-002", Price: 120, Stock: 0, Status: models.StatusOutOfStock}
	mockRepo.On("GetByID", "p-1").Return(stored, nil).Once()
	mockRepo.On("Update", mock.MatchedBy(func(p *models.Product) bool {
		return p.Stock == 50 && p.Status == models.StatusActive
	})).Return(nil).Once()

	product, err := service.UpdateStock("p-1", 50)

	assert.NoError(t, err)
	assert.Equal(t, 50, product.Stock)
	assert.Equal(t, models.StatusActive, product.Status)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateStock_NegativeRejectedWithoutMutation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	_, err := service.UpdateStock("p-1", -5)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Validation errors: ")
	assert.Contains(t, err.Error(), "stock")
	// Rejected before any store round trip.
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_Delete(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Delete", "p-1").Return(nil).Once()
	assert.NoError(t, service.Delete("p-1"))

	mockRepo.On("Delete", "ghost").Return(fmt.Errorf("product with ID ghost not found for deletion")).Once()
	err := service.Delete("ghost")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListCategories(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("Categories").Return([]string{"bracelets", "necklaces", "rings"}, nil).Once()

	categories, err := service.ListCategories()
	assert.NoError(t, err)
	assert.Equal(t, []string{"bracelets", "necklaces", "rings"}, categories)
	mockRepo.AssertExpectations(t)
}

func TestProductService_LowStockAlerts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	flagged := []models.Product{
		{ID: "p-1", Name: "Bangle", SKU: "BG-001", Stock: 0, MinStock: 3, Category: "bracelets", Status: models.StatusOutOfStock},
		{ID: "p-2", Name: "Choker", SKU: "CH-002", Stock: 5, MinStock: 25, Category: "necklaces", Status: models.StatusLowStock},
	}
	mockRepo.On("FindByStatus", []models.ProductStatus{models.StatusLowStock, models.StatusOutOfStock}).
		Return(flagged, nil).Once()

	alerts, err := service.LowStockAlerts()

	assert.NoError(t, err)
	assert.Len(t, alerts, 2)
	assert.Equal(t, models.StatusOutOfStock, alerts[0].AlertLevel)
	assert.Equal(t, models.StatusLowStock, alerts[1].AlertLevel)
	// The per-product min_stock override is never consulted here.
	assert.Equal(t, models.LowStockThreshold, alerts[0].MinStock)
	assert.Equal(t, models.LowStockThreshold, alerts[1].MinStock)
	mockRepo.AssertExpectations(t)
}

func TestProductService_Statistics(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	all := []models.Product{
		{Price: 500, Stock: 3, Status: models.StatusLowStock, Category: "rings"},
		{Price: 120, Stock: 0, Status: models.StatusOutOfStock, Category: "bracelets"},
		{Price: 80, Stock: 20, Status: models.StatusActive, Category: "rings"},
		{Price: 10, Stock: 2, Status: models.StatusLowStock, Category: ""},
	}
	mockRepo.On("All").Return(all, nil).Once()

	stats, err := service.Statistics()

	assert.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalProducts)
	assert.Equal(t, 500.0*3+120.0*0+80.0*20+10.0*2, stats.TotalValue)
	assert.Equal(t, int64(2), stats.LowStockCount)
	assert.Equal(t, int64(1), stats.OutOfStockCount)
	assert.Equal(t, int64(2), stats.CategoryDistribution["rings"])
	assert.Equal(t, int64(1), stats.CategoryDistribution["Uncategorized"])
	mockRepo.AssertExpectations(t)
}

func TestProductService_List_PaginationMetadata(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	items := []models.Product{{ID: "p-1", Name: "Anklet"}}
	mockRepo.On("List", models.ProductFilters{}, 10, 5).Return(items, int64(11), nil).Once()

	page, err := service.List(models.ProductFilters{}, 3, 5)

	assert.NoError(t, err)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.Equal(t, 3, page.TotalPages, "ceil(11/5)")
	mockRepo.AssertExpectations(t)
}

func TestProductService_Import(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("CountBySKU", "LG-100", "").Return(int64(0), nil).Once()
	mockRepo.On("Create", mock.MatchedBy(func(p *models.Product) bool {
		return p.SKU == "LG-100" && p.Stock == 4 && p.Status == models.StatusLowStock
	})).Return(nil).Once()

	results := service.Import([]map[string]any{
		{
			// Legacy spellings: the mapper must land these on canonical fields.
			"Name":           "Legacy Brooch",
			"sku_code":       "LG-100",
			"unit_price":     "230.00",
			"stock_quantity": float64(4),
		},
		{
			// Missing SKU: validation failure reported in its own slot.
			"name": "Nameless", "price": float64(10), "stock": float64(1),
		},
	})

	assert.Len(t, results, 2)
	assert.Empty(t, results[0].Error)
	assert.NotNil(t, results[0].Product)
	assert.Contains(t, results[1].Error, "Validation errors: ")
	mockRepo.AssertExpectations(t)
}
