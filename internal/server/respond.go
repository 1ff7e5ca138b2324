package server

import (
	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/gin-gonic/gin"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fail maps a core error onto its HTTP status and stable code.
func fail(c *gin.Context, err error) {
	c.JSON(apierr.StatusOf(err), errorBody{Error: errorDetail{
		Code:    apierr.CodeOf(err),
		Message: err.Error(),
	}})
}
