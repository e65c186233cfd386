package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/akozlov/clothes-shop/internal/apperr"
	"github.com/akozlov/clothes-shop/internal/logging"
	"github.com/akozlov/clothes-shop/internal/media"
	"github.com/akozlov/clothes-shop/internal/models"
	"github.com/akozlov/clothes-shop/internal/mykafka"
)

const (
	maxImageSize   = 5 << 20
	maxProductName = 100
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type ProductHandler struct {
	DB       *gorm.DB
	Media    media.Host
	Producer *mykafka.Producer
}

type productForm struct {
	Name     *string  `json:"name" form:"name"`
	Price    *float64 `json:"price" form:"price"`
	Size     *float64 `json:"size" form:"size"`
	Category *string  `json:"category" form:"category"`
}

// imageFile returns the uploaded image header, or nil when the request
// carries none.
func imageFile(c echo.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	return fh
}

// validateImage runs the fail-fast checks. Both happen before any call
// to the media host.
func validateImage(fh *multipart.FileHeader) error {
	if !allowedImageTypes[fh.Header.Get(echo.HeaderContentType)] {
		return apperr.Validation("Only JPEG, PNG, or WEBP images are allowed")
	}
	if fh.Size > maxImageSize {
		return apperr.Validation("Image size must be less than 5MB")
	}
	return nil
}

func readImage(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_create")

	fh := imageFile(c)
	if fh == nil {
		return apperr.Validation("Please upload a product image")
	}
	if err := validateImage(fh); err != nil {
		return err
	}

	var req productForm
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if req.Name == nil || *req.Name == "" {
		return apperr.Validation("Please provide product name")
	}
	if len(*req.Name) > maxProductName {
		return apperr.Validation("Product name cannot exceed 100 characters")
	}
	if req.Category == nil || *req.Category == "" {
		return apperr.Validation("Please provide product category")
	}

	data, err := readImage(fh)
	if err != nil {
		return apperr.Upstream("Failed to read image", err)
	}
	image, err := h.Media.Upload(ctx, data, fh.Filename, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return apperr.Upstream("Image upload failed", err)
	}

	product := models.Product{
		Name:     *req.Name,
		Image:    image,
		Category: *req.Category,
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Size != nil {
		product.Size = *req.Size
	}

	// If this insert fails the uploaded object stays behind; the store
	// never learns about it and nothing cleans it up.
	if err := h.DB.WithContext(ctx).Create(&product).Error; err != nil {
		l.Warn("product create failed", "public_id", image.PublicID, "error", err)
		return apperr.Upstream("Failed to create product", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	l.Info("product created", "product_id", product.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"product": product,
	})
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_update")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid product id")
	}

	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return apperr.NotFound("Product not found")
	}

	if fh := imageFile(c); fh != nil {
		if err := validateImage(fh); err != nil {
			return err
		}

		// Superseding the old image: deletion failure must not block
		// the replacement.
		if err := h.Media.Delete(ctx, product.Image.PublicID); err != nil {
			l.Warn("old image delete failed", "public_id", product.Image.PublicID, "error", err)
		}

		data, err := readImage(fh)
		if err != nil {
			return apperr.Upstream("Failed to read image", err)
		}
		image, err := h.Media.Upload(ctx, data, fh.Filename, fh.Header.Get(echo.HeaderContentType))
		if err != nil {
			return apperr.Upstream("Image upload failed", err)
		}
		product.Image = image
	}

	var req productForm
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if req.Name != nil {
		if *req.Name == "" {
			return apperr.Validation("Please provide product name")
		}
		if len(*req.Name) > maxProductName {
			return apperr.Validation("Product name cannot exceed 100 characters")
		}
		product.Name = *req.Name
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Size != nil {
		product.Size = *req.Size
	}
	if req.Category != nil {
		product.Category = *req.Category
	}

	if err := h.DB.WithContext(ctx).Save(&product).Error; err != nil {
		return apperr.Upstream("Failed to update product", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	l.Info("product updated", "product_id", product.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"product": product,
	})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_delete")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid product id")
	}

	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return apperr.NotFound("Product not found")
	}

	// Remote image goes first. If that fails the whole delete aborts
	// and the record stays intact.
	if err := h.Media.Delete(ctx, product.Image.PublicID); err != nil {
		return apperr.Upstream("Failed to delete product", err)
	}

	if err := h.DB.WithContext(ctx).Delete(&product).Error; err != nil {
		return apperr.Upstream("Failed to delete product", err)
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": product.ID,
	})

	l.Info("product deleted", "product_id", product.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.WithContext(c.Request().Context()).Find(&products).Error; err != nil {
		return apperr.Upstream("Failed to fetch products", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

func (h *ProductHandler) GetProductsByCategory(c echo.Context) error {
	var products []models.Product
	if err := h.DB.WithContext(c.Request().Context()).Find(&products).Error; err != nil {
		return apperr.Upstream("Failed to fetch products", err)
	}

	byCategory := map[string][]models.Product{}
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":            true,
		"count":              len(products),
		"productsByCategory": byCategory,
	})
}

func (h *ProductHandler) GetProductsBySingleCategory(c echo.Context) error {
	category := c.Param("category")

	var products []models.Product
	if err := h.DB.WithContext(c.Request().Context()).Where("category = ?", category).Find(&products).Error; err != nil {
		return apperr.Upstream("Failed to fetch products", err)
	}
	// Empty match is a 404 here, unlike the unfiltered listing.
	if len(products) == 0 {
		return apperr.NotFound(fmt.Sprintf("No products found in category: %s", category))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}
