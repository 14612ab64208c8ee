package mmapfile

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config describes the size limits of a file. The relationship
// MaxObjectSize < GrowthStep < MaxSize must hold. Config is not stored in the
// file; a file must be reopened with the config it was grown with.
type Config struct {
	MaxSize       int `json:"max_size" validate:"gtfield=GrowthStep"`
	GrowthStep    int `json:"growth_step" validate:"gtfield=MaxObjectSize"`
	MaxObjectSize int `json:"max_object_size" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that one growth step holds a worst-case record and that the
// file can grow at least once past its initial size.
func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: max_object_size[%d] < growth_step[%d] < max_size[%d] required: %w",
			ErrConfig, cfg.MaxObjectSize, cfg.GrowthStep, cfg.MaxSize, err)
	}

	return nil
}
