package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

func respond(c *gin.Context, status int, data, meta any) {
	c.JSON(status, types.NewSuccessResponse(data, meta))
}

// fail maps domain errors onto the error envelope. Unexpected errors are
// logged with the request id and answered with a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation):
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(err.Error()))
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, types.NewErrorResponse(err.Error()))
	default:
		s.logger.Error("Request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse("internal server error"))
	}
}
