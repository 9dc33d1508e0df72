package models

import (
	"fmt"
	"strings"

	"reading-journal/internal/utils"
)

func validateStruct(v interface{}) error {
	if err := utils.GetValidator().Struct(v); err != nil {
		errs := utils.ParseErrors(err)
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, " // "))
	}

	return nil
}
