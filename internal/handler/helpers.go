package handler

import (
	"errors"
	"net/http"
	"reflect"

	"platepos/internal/apierror"
	"platepos/internal/middleware"
	"platepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds the JSON body and runs validator tags. Returns false
// and writes the VALIDATION_ERROR envelope if either step fails — the caller
// should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, apierror.New(apierror.CodeValidationError, "invalid JSON body"))
		return false
	}
	return validateStruct(c, req)
}

// bindQueryAndValidate is bindAndValidate for query-string filters.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		fail(c, apierror.New(apierror.CodeValidationError, "invalid query parameters"))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		fail(c, apierror.New(apierror.CodeValidationError, "validation failed").WithDetails(fields))
		return false
	}
	return true
}

// fail writes the failure envelope for a taxonomy error.
func fail(c *gin.Context, err *apierror.APIError) {
	c.JSON(err.HTTPStatus(), apierror.Fail(err, c.GetString(middleware.RequestIDKey)))
}

// respondError maps a service error onto the envelope. Unknown errors become
// an opaque 500 — internals are logged by the error middleware, not leaked.
func respondError(c *gin.Context, err error) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		fail(c, apiErr)
		return
	}
	_ = c.Error(err)
	fail(c, apierror.New(apierror.CodeInternal, "internal server error"))
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, apierror.OK(data))
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, apierror.OK(data))
}

func okPaged(c *gin.Context, data interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, apierror.OKPaged(data, apierror.NewPagination(page, limit, total)))
}

// scopeOf builds the service-layer caller scope from the authenticated user.
func scopeOf(c *gin.Context) service.Scope {
	user := middleware.GetUser(c)
	return service.Scope{
		UserID:       user.ID,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	}
}
