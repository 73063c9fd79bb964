package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/services"
)

// statusFor maps an engine error onto the HTTP status returned to the client
func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindAlreadyApproved:
		return http.StatusConflict
	case services.KindInvalidArgument:
		return http.StatusBadRequest
	case services.KindPartialFailure:
		return http.StatusMultiStatus
	default:
		return http.StatusServiceUnavailable
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"error": err.Error(),
		"kind":  services.KindOf(err),
	})
}

// respondResult writes an engine result: the error status on failure,
// 207 when some team records were left behind, 200 otherwise
func respondResult(c *gin.Context, result *services.OperationResult, err error) {
	switch {
	case err != nil:
		c.JSON(statusFor(err), result)
	case result.Partial():
		c.JSON(http.StatusMultiStatus, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// paramID parses the named path parameter as a UUID, answering 400 when it is not one
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"kind":  services.KindInvalidArgument,
		})
		return uuid.Nil, false
	}
	return id, true
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"kind":  services.KindInvalidArgument,
	})
}
