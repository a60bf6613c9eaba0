package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"parking_finder/internal/logger"
)

var registerOnce sync.Once

// registerValidators adds the rules used by the form DTOs to gin's validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			logger.L().Warn("validator_engine_unexpected")
			return
		}
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			logger.L().Error("validator_register_failed", "rule", "notblank", "err", err)
		}
	})
}
