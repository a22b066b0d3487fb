// Package handlers implements the open-API endpoints emulated by the sandbox.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/esign/pkg/constants"
)

// CodeInvalidParam is the envelope code for rejected parameters.
const CodeInvalidParam = 1435002

const messageSuccess = "成功"

// respondOK writes a success envelope. A nil data omits the data member.
func respondOK(c *gin.Context, data interface{}) {
	body := gin.H{
		"code":    constants.CodeSuccess,
		"message": messageSuccess,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// respondError writes a failing envelope. The gateway reports business failures with
// HTTP 200 and a nonzero code.
func respondError(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, gin.H{
		"code":    code,
		"message": message,
	})
}
