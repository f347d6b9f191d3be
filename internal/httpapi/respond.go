package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sadopc/worklog/internal/apperr"
)

// envelope is the error body of every failed request.
type envelope struct {
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
	Info      any    `json:"info,omitempty"`
}

// fail writes err as an error envelope with the status its kind maps to.
// Internal errors are logged and replaced with a generic message.
func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	body := envelope{ErrorType: apperr.Type(err)}

	var ae *apperr.Error
	switch {
	case status == http.StatusInternalServerError || !errors.As(err, &ae):
		_ = c.Error(err)
		body.ErrorType = "unknown"
		body.Message = "Internal server error"
	case ae.Kind == apperr.KindValidation && len(ae.Fields) > 0:
		body.Message = "Validation error"
		body.Info = ae.Fields
	case ae.Kind == apperr.KindInvalidID:
		body.Message = "Validation error"
		body.Info = "Invalid id"
	default:
		body.Message = ae.Message
	}
	c.AbortWithStatusJSON(status, body)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
		ErrorType: "authorization.unauthorized",
		Message:   message,
	})
}
