package models

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeEmptyTransaction       ErrorCode = "EmptyTransaction"
	CodeInvalidTransactionType ErrorCode = "InvalidTransactionType"
	CodeInvalidTransaction     ErrorCode = "InvalidTransaction"
	CodeUnknownProduct         ErrorCode = "UnknownProduct"
	CodeInvalidLineValue       ErrorCode = "InvalidLineValue"
	CodeInsufficientStock      ErrorCode = "InsufficientStock"
	CodeProductInUse           ErrorCode = "ProductInUse"
	CodeInvalidProduct         ErrorCode = "InvalidProduct"
	CodeDuplicateProductCode   ErrorCode = "DuplicateProductCode"
	CodeImmutableProductCode   ErrorCode = "ImmutableProductCode"
	CodeProductNotFound        ErrorCode = "ProductNotFound"
	CodeTransactionNotFound    ErrorCode = "TransactionNotFound"
	CodeInvalidQuery           ErrorCode = "InvalidQuery"
)

// ValidationError is a domain rejection. The ledger and catalog are left
// unchanged whenever one is returned.
type ValidationError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	LineIndex *int      `json:"line_index,omitempty"`
	ProductId int       `json:"product_id,omitempty"`
	Shortfall int       `json:"shortfall,omitempty"`
	Field     string    `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any ValidationError with the same code, so errors.Is(err, ErrUnknownProduct)
// works for errors carrying line details.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrEmptyTransaction       = &ValidationError{Code: CodeEmptyTransaction, Message: "transaction has no lines"}
	ErrInvalidTransactionType = &ValidationError{Code: CodeInvalidTransactionType, Message: "type must be IN, OUT or ADJ"}
	ErrInvalidTransaction     = &ValidationError{Code: CodeInvalidTransaction, Message: "invalid transaction"}
	ErrUnknownProduct         = &ValidationError{Code: CodeUnknownProduct, Message: "unknown product"}
	ErrInvalidLineValue       = &ValidationError{Code: CodeInvalidLineValue, Message: "invalid line value"}
	ErrInsufficientStock      = &ValidationError{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrProductInUse           = &ValidationError{Code: CodeProductInUse, Message: "product is referenced by ledger entries"}
	ErrInvalidProduct         = &ValidationError{Code: CodeInvalidProduct, Message: "invalid product"}
	ErrDuplicateProductCode   = &ValidationError{Code: CodeDuplicateProductCode, Message: "product code already exists"}
	ErrImmutableProductCode   = &ValidationError{Code: CodeImmutableProductCode, Message: "product code cannot change once referenced"}
	ErrProductNotFound        = &ValidationError{Code: CodeProductNotFound, Message: "product not found"}
	ErrTransactionNotFound    = &ValidationError{Code: CodeTransactionNotFound, Message: "transaction not found"}
	ErrInvalidQuery           = &ValidationError{Code: CodeInvalidQuery, Message: "invalid query"}
)

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func newValidationError(code ErrorCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newLineError(code ErrorCode, lineIndex int, productId int, format string, args ...any) *ValidationError {
	idx := lineIndex
	return &ValidationError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		LineIndex: &idx,
		ProductId: productId,
	}
}
