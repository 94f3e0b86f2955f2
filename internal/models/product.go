package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Product is a listing stored in the document store. The store key is the
// product id; the record itself carries no id field. OwnerUID is set once at
// creation from the authenticated caller and is never reassigned.
type Product struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	OwnerUID    string  `json:"owner_uid"`
}

// ProductInput is the request body for creating or updating a product.
// All four fields are required; a zero price counts as absent. No positivity
// or range check is applied beyond that.
type ProductInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"required"`
}

var inputValidator = validator.New()

// ValidationError aggregates every missing required field into one error.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Validate reports all absent required fields at once.
func (in ProductInput) Validate() error {
	err := inputValidator.Struct(in)
	if err == nil {
		return nil
	}
	ve := &ValidationError{}
	for _, fe := range err.(validator.ValidationErrors) {
		ve.Fields = append(ve.Fields, strings.ToLower(fe.Field()))
	}
	return ve
}
