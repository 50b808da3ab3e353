package translate

import (
	"fmt"
	"reflect"
	"strings"

	cumuluserrors "github.com/2lambda123/nasa-cumulus-sub001/pkg/errors"
	"github.com/2lambda123/nasa-cumulus-sub001/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report legacy field names rather than Go field names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("source"), ",", 2)[0]
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// validateRecord converts the first failed rule into a SchemaValidationError.
func validateRecord(entity models.Entity, value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return cumuluserrors.NewSchemaValidationError(string(entity), "", err.Error())
	}
	fe := verrs[0]
	msg := fmt.Sprintf("rule '%s' failed", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("rule '%s' expected '%s', got '%v'", fe.Tag(), fe.Param(), fe.Value())
	}
	return cumuluserrors.NewSchemaValidationError(string(entity), fe.Field(), msg)
}
