package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"channel-chat/services"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

var statusByCode = map[string]int{
	services.CodeUnauthenticated:     http.StatusUnauthorized,
	services.CodeNotAMember:          http.StatusForbidden,
	services.CodeForbidden:           http.StatusForbidden,
	services.CodeCannotRemoveCreator: http.StatusForbidden,
	services.CodeNotFound:            http.StatusNotFound,
	services.CodeConflict:            http.StatusConflict,
	services.CodeInvalidContent:      http.StatusBadRequest,
	services.CodeInvalidInput:        http.StatusBadRequest,
}

var titleByStatus = map[int]string{
	http.StatusUnauthorized: "Unauthorized",
	http.StatusForbidden:    "Forbidden",
	http.StatusNotFound:     "Not found",
	http.StatusConflict:     "Conflict",
	http.StatusBadRequest:   "Bad request",
}

// respondWithError maps a service error onto a status and aborts the chain.
func respondWithError(c *gin.Context, err error) {
	code := services.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		logrus.WithError(err).WithFields(logrus.Fields{
			"component": "http",
			"path":      c.FullPath(),
		}).Error("unhandled internal error")
	}
	title, ok := titleByStatus[status]
	if !ok {
		title = "Internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   title,
		Code:    code,
		Message: services.PublicMessage(err),
	})
}

func respondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}
