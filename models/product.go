package models

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Code          string          `gorm:"size:50;not null;uniqueIndex" json:"code"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Category      Category        `gorm:"type:enum('electronics','clothing','food','books','other');not null;default:other" json:"category"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	MinStockLevel int             `gorm:"not null;default:0" json:"min_stock_level"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProductInput struct {
	Code          string          `json:"code" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=200"`
	Category      Category        `json:"category" validate:"required,oneof=electronics clothing food books other"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MinStockLevel int             `json:"min_stock_level" validate:"gte=0"`
}

var validate = newValidator()

// newValidator reports json field names so API clients see the names they sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (input *ProductInput) normalize() {
	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	input.Category = Category(strings.ToLower(strings.TrimSpace(string(input.Category))))
}

func (input *ProductInput) validate() error {
	input.normalize()
	if err := validate.Struct(input); err != nil {
		return &ValidationError{
			Code:    CodeInvalidProduct,
			Message: utils.DescribeValidationErrors(err),
			Field:   firstInvalidField(err),
		}
	}
	if !input.UnitPrice.IsPositive() {
		return &ValidationError{Code: CodeInvalidProduct, Message: "unit_price must be positive", Field: "unit_price"}
	}
	return nil
}

func firstInvalidField(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Field()
	}
	return ""
}

func (input *ProductInput) toProduct() Product {
	return Product{
		Code:          input.Code,
		Name:          input.Name,
		Category:      input.Category,
		UnitPrice:     input.UnitPrice,
		MinStockLevel: input.MinStockLevel,
	}
}

// distinctCategories returns the categories present in catalog order of first appearance.
func distinctCategories(products []Product) []Category {
	seen := make(map[Category]bool, len(AllCategories))
	out := make([]Category, 0, len(AllCategories))
	for _, p := range products {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
