package handler

import (
	"net/http"

	"github.com/jusondac/factory-app/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindValidationFailed, "invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.Validation(fields))
		return false
	}
	return true
}

// respondErr maps a service error to its HTTP status via the error kind.
func respondErr(c *gin.Context, err error) {
	apiErr := apierror.From(err)
	c.JSON(apierror.Status(apiErr), apiErr)
}

// pathUUID parses the named path parameter as a UUID, writing the error
// response on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.KindValidationFailed, "invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
