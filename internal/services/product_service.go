package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"jooba/internal/models"
	"jooba/internal/store"
	"jooba/pkg/rabbitmq"
)

const productsPath = "products"

var (
	// ErrProductNotFound covers both a missing product and an ownership
	// failure. The two are deliberately indistinguishable so callers
	// cannot probe which product ids exist.
	ErrProductNotFound = errors.New("product not found or unauthorized")

	// ErrNoMatches is returned by search and category listings that find
	// nothing; those endpoints report 404 instead of an empty mapping.
	ErrNoMatches = errors.New("no matching products found")
)

// ProductService handles product listings and ownership enforcement.
// The events client may be nil; publishing is best-effort and never affects
// the outcome of the store write it follows.
type ProductService struct {
	store  store.Store
	events *rabbitmq.Client
}

// NewProductService creates a new ProductService.
func NewProductService(st store.Store, events *rabbitmq.Client) *ProductService {
	return &ProductService{
		store:  st,
		events: events,
	}
}

// Create appends a product owned by uid and returns the generated id.
// OwnerUID is set here, once, and no other operation can change it.
func (s *ProductService) Create(uid string, in models.ProductInput) (string, error) {
	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		OwnerUID:    uid,
	}
	id, err := s.store.Push(productsPath, product)
	if err != nil {
		return "", fmt.Errorf("failed to store product: %w", err)
	}
	s.publish("product.created", id, uid)
	return id, nil
}

// Get returns the product record for id.
func (s *ProductService) Get(id string) (*models.Product, error) {
	var product models.Product
	err := s.store.Get(productsPath+"/"+id, &product)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// ListAll returns the whole products collection keyed by id. An empty store
// yields an empty map, not an error.
func (s *ProductService) ListAll() (map[string]models.Product, error) {
	products := make(map[string]models.Product)
	err := s.store.Get(productsPath, &products)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListByOwner returns exactly the products whose owner_uid equals uid.
// No matches is a valid, empty result.
func (s *ProductService) ListByOwner(uid string) (map[string]models.Product, error) {
	products := make(map[string]models.Product)
	if err := s.store.FilterEqual(productsPath, "owner_uid", uid, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Update overwrites the four content fields of a product owned by uid.
// The ownership gate runs before field validation, so a missing or foreign
// product reports 404 even when the body is incomplete. The patch never
// touches owner_uid.
func (s *ProductService) Update(uid, id string, in models.ProductInput) error {
	if err := s.requireOwner(uid, id); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}

	fields := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"category":    in.Category,
		"price":       in.Price,
	}
	if err := s.store.Update(productsPath+"/"+id, fields); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.publish("product.updated", id, uid)
	return nil
}

// Delete removes a product owned by uid.
func (s *ProductService) Delete(uid, id string) error {
	if err := s.requireOwner(uid, id); err != nil {
		return err
	}
	if err := s.store.Delete(productsPath + "/" + id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.publish("product.deleted", id, uid)
	return nil
}

// Search scans the whole collection for a case-insensitive substring match
// on the product name. Zero matches, or an empty collection, is ErrNoMatches.
func (s *ProductService) Search(query string) (map[string]models.Product, error) {
	all, err := s.ListAll()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make(map[string]models.Product)
	for id, product := range all {
		if strings.Contains(strings.ToLower(product.Name), needle) {
			matches[id] = product
		}
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	return matches, nil
}

// ByCategory runs a store-level equality filter on the category field.
// Zero matches is ErrNoMatches.
func (s *ProductService) ByCategory(category string) (map[string]models.Product, error) {
	products := make(map[string]models.Product)
	if err := s.store.FilterEqual(productsPath, "category", category, &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		return nil, ErrNoMatches
	}
	return products, nil
}

// requireOwner collapses "does not exist" and "not yours" into the same
// error so existence cannot be probed through mutation endpoints.
func (s *ProductService) requireOwner(uid, id string) error {
	var product models.Product
	err := s.store.Get(productsPath+"/"+id, &product)
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product.OwnerUID != uid {
		return ErrProductNotFound
	}
	return nil
}

// publish emits a lifecycle event when an events client is configured.
// Failures are logged and swallowed; the HTTP response never depends on it.
func (s *ProductService) publish(event, id, uid string) {
	if s.events == nil {
		return
	}
	err := s.events.PublishProductEvent(event, map[string]any{
		"product_id": id,
		"owner_uid":  uid,
	})
	if err != nil {
		log.Printf("failed to publish %s event for product %s: %v", event, id, err)
	}
}
