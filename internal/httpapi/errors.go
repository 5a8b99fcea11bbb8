package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/metervision/meter-reading-service/internal/service"
)

type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// abortWithError maps a use-case failure onto a status code and the public
// error body. Anything that is not a typed service error becomes an opaque
// internal error.
func abortWithError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			ErrorCode:        service.CodeInternalError,
			ErrorDescription: "failed to process the request",
		})
		return
	}

	status := http.StatusInternalServerError
	switch svcErr.Kind {
	case service.KindInvalid:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	}

	c.AbortWithStatusJSON(status, errorResponse{
		ErrorCode:        svcErr.Code,
		ErrorDescription: svcErr.Description,
	})
}

func abortInvalidData(c *gin.Context, description string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		ErrorCode:        service.CodeInvalidData,
		ErrorDescription: description,
	})
}
