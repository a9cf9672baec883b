package webserver

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/promptverse/promptfeed/src/types"
)

var registerOnce sync.Once

// enumTags are the enum tags used in request bindings.
var enumTags = map[string]validator.Func{
	"prompttag": func(fl validator.FieldLevel) bool {
		return types.PromptTag(fl.Field().String()).Valid()
	},
	"prompttype": func(fl validator.FieldLevel) bool {
		return types.PromptType(fl.Field().String()).Valid()
	},
	"filtertype": func(fl validator.FieldLevel) bool {
		return types.FilterType(fl.Field().String()).Valid()
	},
}

func registerTags(v *validator.Validate, tags map[string]validator.Func) error {
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validator: %w", tag, err)
		}
	}
	return nil
}

// registerValidators installs enumTags on gin's validator. A binding tag
// that is not registered panics on first use, so failures panic here at
// startup instead.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			panic(fmt.Sprintf("unexpected binding validator engine %T", binding.Validator.Engine()))
		}
		if err := registerTags(v, enumTags); err != nil {
			panic(err)
		}
	})
}
