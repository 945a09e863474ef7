package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Run(router *gin.Engine, port int) error {
	addr := fmt.Sprintf(":%d", port)
	if err := router.Run(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
