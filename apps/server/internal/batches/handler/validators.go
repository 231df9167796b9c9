package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tilsley/hgraph/apps/server/internal/batches/derived"
)

var validatorsOnce sync.Once

// registerValidators adds the domain rules referenced from the api
// package's binding tags to gin's validator.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("species", validateSpecies)
		_ = v.RegisterValidation("conductivity_unit", validateConductivityUnit)
	})
}

// validateSpecies accepts graphene species 1 and 2.
func validateSpecies(fl validator.FieldLevel) bool {
	s := fl.Field().Int()
	return s == 1 || s == 2
}

func validateConductivityUnit(fl validator.FieldLevel) bool {
	return derived.KnownConductivityUnit(fl.Field().String())
}
