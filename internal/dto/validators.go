package dto

import (
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations wires custom binding validations into Gin's validator
// engine. Call once at startup before routes are served.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("txntype", func(fl validator.FieldLevel) bool {
		return domain.ValidTransactionType(domain.TransactionType(fl.Field().String()))
	})
}
