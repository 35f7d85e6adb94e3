package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"project-tracker/internal/respond"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into req and validates it. On failure the
// response has already been written.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respond.Error(c, http.StatusBadRequest, "Malformed request body: "+err.Error())
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respond.Error(c, http.StatusBadRequest, err.Error())
			return false
		}
		respond.ValidationError(c, fieldMessages(verrs))
		return false
	}
	return true
}

func fieldMessages(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s must not be blank", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters long", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s must be at most %s characters long", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s", name, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid", name)
	}
}
