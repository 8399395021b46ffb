package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/paytraq_sync/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides the liveness/usage endpoint.
type HealthHandler struct{}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// GetHealth responds with the service name and usage hints.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.OK(c, gin.H{
		"service": "paytraq-sheets-sync",
		"uptime":  int(time.Since(startTime).Seconds()),
		"usage": []string{
			"GET /products-updated-today?suppliers={0|1}",
			"GET /export-all-products-to-sheet?spreadsheet_id=&worksheet=&suppliers=&create=",
			"GET /sync-today-products-to-sheet?spreadsheet_id=&worksheet=&suppliers=&key=",
			"GET /sync-updated-products-to-sheet?spreadsheet_id=&worksheet=&log_worksheet=&suppliers=&key=&create_missing=",
		},
	})
}
