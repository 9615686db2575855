package response

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/jebol-id/adminduk-api/pkg/errors"
)

// Envelope is the response contract shared by every endpoint:
// {success, message, data, errors} with optional meta for list endpoints.
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    interface{}            `json:"data"`
	Errors  map[string]interface{} `json:"errors"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Success sends a success envelope.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Errors:  map[string]interface{}{},
	})
}

// SuccessWithMeta sends a success envelope with meta, used for paginated lists.
func SuccessWithMeta(c *gin.Context, status int, message string, data interface{}, meta map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
		Errors:  map[string]interface{}{},
		Meta:    meta,
	})
}

// Error converts any error to the shared envelope. The HTTP status comes from
// the typed error; unknown errors become a masked 500.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{
		Success: false,
		Message: appErr.Message,
		Data:    nil,
		Errors:  map[string]interface{}{},
	})
}

// ValidationError reports per-field validation failures.
func ValidationError(c *gin.Context, message string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErrors.ErrValidation.Status, Envelope{
		Success: false,
		Message: message,
		Data:    nil,
		Errors:  fields,
	})
}
