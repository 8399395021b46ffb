package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/paytraq_sync/internal/config"
	"github.com/GTDGit/paytraq_sync/internal/service"
	"github.com/GTDGit/paytraq_sync/internal/utils"
)

// debugTail bounds the paging diagnostics returned on success.
const debugTail = 10

// ProductHandler handles read-only product endpoints.
type ProductHandler struct {
	productSvc *service.ProductService
	paytraqCfg config.PayTraqConfig
	loc        *time.Location
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(productSvc *service.ProductService, paytraqCfg config.PayTraqConfig, loc *time.Location) *ProductHandler {
	return &ProductHandler{productSvc: productSvc, paytraqCfg: paytraqCfg, loc: loc}
}

// GetUpdatedToday returns every product whose UpdatedUTC falls inside
// today's civil-day window.
func (h *ProductHandler) GetUpdatedToday(c *gin.Context) {
	if !h.paytraqCfg.HasCredentials() {
		utils.Fail(c, 400, utils.CodeConfigError, "Missing PAYTRAQ_API_KEY or PAYTRAQ_API_TOKEN", nil)
		return
	}

	withSuppliers := utils.BoolParam(c.Query("suppliers"))
	win := service.TodayWindow(time.Now(), h.loc)

	records, debug, err := h.productSvc.FetchCatalog(c.Request.Context(), withSuppliers)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	updated := service.UpdatedWithin(records, win)

	utils.OK(c, gin.H{
		"window_utc": gin.H{"start": win.StartISO(), "end": win.EndISO()},
		"count":      len(updated),
		"products":   updated,
		"debug":      utils.TailStrings(debug, debugTail),
	})
}
