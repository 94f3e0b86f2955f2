package handlers

import (
	"errors"
	"log"

	"jooba/internal/middleware"
	"jooba/internal/models"
	"jooba/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles the product endpoints.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes. Mutating endpoints and the
// owner listing sit behind the auth guard; reads are public.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authGuard fiber.Handler) {
	router.Post("/upload_product", authGuard, h.HandleUpload)
	router.Get("/user_products", authGuard, h.HandleUserProducts)
	router.Delete("/delete_product/:id", authGuard, h.HandleDelete)
	router.Put("/update_product/:id", authGuard, h.HandleUpdate)

	router.Get("/product_info/:id", h.HandleProductInfo)
	router.Get("/all_products", h.HandleAllProducts)
	router.Get("/search_products", h.HandleSearch)
	router.Get("/products_by_category/:name", h.HandleByCategory)
}

// HandleUpload creates a product owned by the authenticated caller.
func (h *ProductHandler) HandleUpload(c *fiber.Ctx) error {
	uid := c.Locals(middleware.LocalsUID).(string)

	var in models.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if err := in.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	id, err := h.service.Create(uid, in)
	if err != nil {
		log.Printf("failed to upload product for %s: %v", uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "product uploaded successfully",
		"product_id": id,
	})
}

// HandleUserProducts lists the caller's own products. An empty result is a
// 200 with an empty mapping.
func (h *ProductHandler) HandleUserProducts(c *fiber.Ctx) error {
	uid := c.Locals(middleware.LocalsUID).(string)

	products, err := h.service.ListByOwner(uid)
	if err != nil {
		log.Printf("failed to list products for %s: %v", uid, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleDelete removes a product the caller owns. Missing and not-owned
// products report the same 404.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	uid := c.Locals(middleware.LocalsUID).(string)
	id := c.Params("id")

	if err := h.service.Delete(uid, id); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("failed to delete product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "product deleted successfully",
	})
}

// HandleUpdate overwrites the four content fields of a product the caller
// owns. Ownership is checked before the body is judged at all: a missing or
// foreign product reports 404 even when the body is malformed or incomplete.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	uid := c.Locals(middleware.LocalsUID).(string)
	id := c.Params("id")

	var in models.ProductInput
	parseErr := c.BodyParser(&in)
	if parseErr != nil {
		// An unparseable body never passes field validation, so the
		// service still runs the ownership gate first.
		in = models.ProductInput{}
	}

	if err := h.service.Update(uid, id, in); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			if parseErr != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid request body",
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ve.Error(),
			})
		}
		log.Printf("failed to update product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "product updated successfully",
	})
}

// HandleProductInfo returns the raw product record.
func (h *ProductHandler) HandleProductInfo(c *fiber.Ctx) error {
	id := c.Params("id")

	product, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}
		log.Printf("failed to get product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleAllProducts returns the whole collection, unpaginated. An empty
// store is a 200 with an empty mapping, unlike search and category.
func (h *ProductHandler) HandleAllProducts(c *fiber.Ctx) error {
	products, err := h.service.ListAll()
	if err != nil {
		log.Printf("failed to list products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleSearch matches a case-insensitive substring against product names.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "search query not provided",
		})
	}

	products, err := h.service.Search(query)
	if err != nil {
		if errors.Is(err, services.ErrNoMatches) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no matching products found",
			})
		}
		log.Printf("failed to search products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleByCategory filters products by exact category at the store level.
func (h *ProductHandler) HandleByCategory(c *fiber.Ctx) error {
	category := c.Params("name")

	products, err := h.service.ByCategory(category)
	if err != nil {
		if errors.Is(err, services.ErrNoMatches) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no products found in this category",
			})
		}
		log.Printf("failed to list products in category %s: %v", category, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(products)
}
