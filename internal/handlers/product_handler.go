package handlers

import (
	"fmt"
	"log"
	"strings"

	"gemstock/internal/models"
	"gemstock/internal/services"
	"gemstock/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
	images  storage.ImageStore // nil when image storage is not configured
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, images storage.ImageStore) *ProductHandler {
	return &ProductHandler{
		service: service,
		images:  images,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/categories", h.HandleListCategories)
	productRoutes.Get("/alerts/low-stock", h.HandleLowStockAlerts)
	productRoutes.Get("/stats", h.HandleStatistics)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Post("/import", h.HandleImportProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Patch("/:id/stock", h.HandleUpdateStock)
	productRoutes.Post("/:id/images", h.HandleUploadImage)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// statusForError maps service error text to an HTTP status. The phrases are
// a contract with the service layer.
func statusForError(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Validation errors:"):
		return fiber.StatusBadRequest
	case strings.Contains(msg, "SKU must be unique"):
		return fiber.StatusConflict
	case strings.Contains(msg, "not found"):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleListProducts returns one page of products matching the query filters.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filters := models.ProductFilters{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	}
	if c.Query("min_price") != "" {
		v := c.QueryFloat("min_price")
		filters.MinPrice = &v
	}
	if c.Query("max_price") != "" {
		v := c.QueryFloat("max_price")
		filters.MaxPrice = &v
	}
	if c.Query("in_stock") != "" {
		v := c.QueryBool("in_stock")
		filters.InStock = &v
	}

	page, err := h.service.List(filters, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a single product by its ID. Absence is a 404,
// not a store error.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.Get(id)
	if err != nil {
		log.Printf("Error getting product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %s not found", id),
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req models.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.service.Create(req)
	if err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	var req models.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update product body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	product, err := h.service.Update(id, req)
	if err != nil {
		log.Printf("Error updating product %s: %v", id, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleUpdateStock sets the stock level of a product.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	id := c.Params("id")
	var body struct {
		Stock *int `json:"stock"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("Error parsing stock update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if body.Stock == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "stock is required",
		})
	}

	product, err := h.service.UpdateStock(id, *body.Stock)
	if err != nil {
		log.Printf("Error updating stock for product %s: %v", id, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not update stock",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleDeleteProduct hard-deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(id); err != nil {
		log.Printf("Error deleting product %s: %v", id, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", id),
	})
}

// HandleListCategories returns the distinct product categories.
func (h *ProductHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories()
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// HandleLowStockAlerts returns the replenishment report.
func (h *ProductHandler) HandleLowStockAlerts(c *fiber.Ctx) error {
	alerts, err := h.service.LowStockAlerts()
	if err != nil {
		log.Printf("Error listing low stock alerts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve low stock alerts",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}

// HandleStatistics returns catalog-wide inventory statistics.
func (h *ProductHandler) HandleStatistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics()
	if err != nil {
		log.Printf("Error computing statistics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve statistics",
			"error":   err.Error(),
		})
	}
	return c.JSON(stats)
}

// HandleImportProducts normalizes and creates a batch of legacy catalog
// records. Per-record failures are reported in the result list; the endpoint
// itself succeeds as long as the payload parses.
func (h *ProductHandler) HandleImportProducts(c *fiber.Ctx) error {
	var records []map[string]any
	if err := c.BodyParser(&records); err != nil {
		log.Printf("Error parsing import body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body, expected an array of records",
			"error":   err.Error(),
		})
	}
	if len(records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No records to import",
		})
	}

	results := h.service.Import(records)
	imported := 0
	for _, r := range results {
		if r.Error == "" {
			imported++
		}
	}
	return c.JSON(fiber.Map{
		"imported": imported,
		"failed":   len(results) - imported,
		"results":  results,
	})
}

// HandleUploadImage uploads a product photo to the image store and appends
// its URL to the product's image list.
func (h *ProductHandler) HandleUploadImage(c *fiber.Ctx) error {
	if h.images == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Image storage is not configured",
		})
	}

	id := c.Params("id")
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Form field 'image' is required",
			"error":   err.Error(),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded file: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read uploaded file",
			"error":   err.Error(),
		})
	}
	defer file.Close()

	url, err := h.images.Upload(c.Context(), file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("Error uploading image for product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not upload image",
			"error":   err.Error(),
		})
	}

	product, err := h.service.AppendImage(id, url)
	if err != nil {
		log.Printf("Error attaching image to product %s: %v", id, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not attach image to product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}
