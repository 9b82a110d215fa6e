package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/campushub-api/internal/models"
	appErrors "github.com/campushub/campushub-api/pkg/errors"
	"github.com/campushub/campushub-api/pkg/middleware/requestid"
)

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data,omitempty"`
	Message    string                 `json:"message"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// Tenant data must never be cached by intermediaries.
func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}

// OK sends data with status 200.
func OK(c *gin.Context, data interface{}) {
	Message(c, http.StatusOK, "", data)
}

// Created sends data with status 201.
func Created(c *gin.Context, data interface{}) {
	Message(c, http.StatusCreated, "", data)
}

// Message sends data with a human readable summary; an empty message falls
// back to the status text.
func Message(c *gin.Context, status int, message string, data interface{}) {
	if message == "" {
		message = http.StatusText(status)
	}
	write(c, status, Envelope{Success: true, Data: data, Message: message})
}

// Page sends one page of a list. meta may be nil.
func Page(c *gin.Context, items interface{}, pagination *models.Pagination, meta map[string]interface{}) {
	write(c, http.StatusOK, Envelope{
		Success:    true,
		Data:       items,
		Message:    http.StatusText(http.StatusOK),
		Pagination: pagination,
		Meta:       meta,
	})
}

// Error renders err and records it on the context for the access log.
// Errors that are not *appErrors.Error are reported as a bare 500.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	env := Envelope{Success: false, Message: appErr.Message, Error: appErr}
	if id := requestid.Value(c); id != "" {
		env.Meta = map[string]interface{}{"request_id": id}
	}
	write(c, appErr.Status, env)
}
