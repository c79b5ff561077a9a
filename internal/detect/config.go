package detect

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"quietcut/internal/services"
)

// ErrInvalidConfig marks detection parameters rejected before a scan starts.
var ErrInvalidConfig = errors.New("invalid detection config")

// Config holds the parameters of one detection run. SilenceMinLen is in
// seconds; callers converting from minutes do so before building a Config.
type Config struct {
	WindowSize      float64 `json:"window_size" validate:"finite,gt=0"`
	VolumeThreshold float64 `json:"volume_threshold" validate:"finite,gte=0"`
	EaseIn          float64 `json:"ease_in" validate:"finite,gte=0"`
	SilenceMinLen   float64 `json:"silence_min_len" validate:"finite,gte=0"`
	TrimEdgesOnly   bool    `json:"trim_edges_only"`
}

var configValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
})

// Validate rejects malformed parameters. Values are never clamped.
func (c Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return services.Wrap(services.ErrValidation, "detect", "config", err.Error(), ErrInvalidConfig)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return services.Wrap(services.ErrValidation, "detect", "config", strings.Join(problems, "; "), ErrInvalidConfig)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "finite":
		return fmt.Sprintf("%s must be a finite number", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
