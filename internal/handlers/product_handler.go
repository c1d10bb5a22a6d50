package handlers

import (
	"strconv"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	guards   Guards
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, guards Guards, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		guards:   guards,
		validate: newValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products", h.guards.Auth)
	products.Post("/create-new-product", h.guards.Admin, h.HandleCreateProduct)
	products.Get("/fetch-admin-products", h.guards.Admin, h.HandleGetAllProducts)
	products.Get("/fetch-client-products", h.HandleGetClientProducts)
	products.Get("/:id", h.HandleGetProductByID)
	products.Put("/:id", h.guards.Admin, h.HandleUpdateProduct)
	products.Delete("/:id", h.guards.Admin, h.HandleDeleteProduct)
}

type productRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Brand       string          `json:"brand" validate:"max=100"`
	Category    string          `json:"category" validate:"max=100"`
	Description string          `json:"description"`
	Gender      string          `json:"gender" validate:"max=20"`
	Sizes       stringList      `json:"sizes"`
	Colors      stringList      `json:"colors"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Images      stringList      `json:"images"`
	IsFeatured  bool            `json:"isFeatured"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:        r.Name,
		Brand:       r.Brand,
		Category:    r.Category,
		Description: r.Description,
		Gender:      r.Gender,
		Sizes:       r.Sizes,
		Colors:      r.Colors,
		Price:       r.Price,
		Stock:       r.Stock,
		Images:      r.Images,
		IsFeatured:  r.IsFeatured,
	}
}

// formProductRequest reads a product from multipart form values.
func formProductRequest(c *fiber.Ctx) (productRequest, error) {
	req := productRequest{
		Name:        c.FormValue("name"),
		Brand:       c.FormValue("brand"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
		Gender:      c.FormValue("gender"),
		Sizes:       splitList(c.FormValue("sizes")),
		Colors:      splitList(c.FormValue("colors")),
		Images:      splitList(c.FormValue("images")),
	}
	var err error
	if v := c.FormValue("price"); v != "" {
		if req.Price, err = decimal.NewFromString(v); err != nil {
			return req, apperr.Validation("price must be a number")
		}
	}
	if v := c.FormValue("stock"); v != "" {
		if req.Stock, err = strconv.Atoi(v); err != nil {
			return req, apperr.Validation("stock must be an integer")
		}
	}
	if v := c.FormValue("isFeatured"); v != "" {
		if req.IsFeatured, err = strconv.ParseBool(v); err != nil {
			return req, apperr.Validation("isFeatured must be a boolean")
		}
	}
	return req, nil
}

// readProduct binds a product from a multipart form with "images" files or
// from a JSON body. It returns ok=false once a response has been written.
func (h *ProductHandler) readProduct(c *fiber.Ctx) (services.ProductInput, []services.ImageUpload, func(), bool, error) {
	noop := func() {}
	if !isMultipart(c) {
		var req productRequest
		if ok, err := bind(c, h.validate, &req); !ok {
			return services.ProductInput{}, nil, noop, false, err
		}
		return req.input(), nil, noop, true, nil
	}

	req, err := formProductRequest(c)
	if err != nil {
		return services.ProductInput{}, nil, noop, false, respondError(c, h.log, err, "Invalid product form")
	}
	if ok, err := validate(c, h.validate, &req); !ok {
		return services.ProductInput{}, nil, noop, false, err
	}
	files, closeFiles, err := imageUploads(c, "images")
	if err != nil {
		return services.ProductInput{}, nil, noop, false, respondError(c, h.log, err, "Failed to read images")
	}
	return req.input(), files, closeFiles, true, nil
}

// HandleCreateProduct creates a product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in, files, closeFiles, ok, err := h.readProduct(c)
	if !ok {
		return err
	}
	defer closeFiles()

	product, err := h.service.CreateProduct(c.UserContext(), in, files)
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	h.log.Info("product created", zap.String("product_id", product.ID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "product": product})
}

// HandleGetAllProducts lists every product for administrators.
func (h *ProductHandler) HandleGetAllProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "products": products})
}

// HandleGetProductByID returns one product with its reviews.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "product": product})
}

// HandleUpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	in, files, closeFiles, ok, err := h.readProduct(c)
	if !ok {
		return err
	}
	defer closeFiles()

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), in, files)
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "product": product})
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Product deleted successfully"})
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperr.Validation("%s must be a number", key)
	}
	return &d, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", key)
	}
	return n, nil
}

func (h *ProductHandler) parseProductQuery(c *fiber.Ctx) (services.ProductQuery, error) {
	q := services.ProductQuery{
		Categories: splitList(c.Query("categories")),
		Brands:     splitList(c.Query("brands")),
		Sizes:      splitList(c.Query("sizes")),
		Colors:     splitList(c.Query("colors")),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
	}
	var err error
	if q.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

// HandleGetClientProducts filters, sorts and paginates the catalog.
func (h *ProductHandler) HandleGetClientProducts(c *fiber.Ctx) error {
	q, err := h.parseProductQuery(c)
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	page, err := h.service.ListClientProducts(c.UserContext(), q)
	if err != nil {
		return respondError(c, h.log, err, "Some error occured!")
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"products":      page.Products,
		"currentPage":   page.CurrentPage,
		"totalPages":    page.TotalPages,
		"totalProducts": page.TotalProducts,
	})
}
