package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/paytraq_sync/internal/config"
	"github.com/GTDGit/paytraq_sync/internal/lock"
	"github.com/GTDGit/paytraq_sync/internal/models"
	"github.com/GTDGit/paytraq_sync/internal/service"
	"github.com/GTDGit/paytraq_sync/internal/utils"
	"github.com/GTDGit/paytraq_sync/pkg/gsheets"
)

// Default worksheet titles.
const (
	defaultWorksheet    = "Products"
	defaultLogWorksheet = "ChangesLog"
)

// SheetHandler handles the spreadsheet export/sync endpoints.
type SheetHandler struct {
	productSvc *service.ProductService
	syncSvc    *service.SyncService
	sheets     *gsheets.Client // nil when Google credentials are missing
	syncLock   *lock.SyncLock  // nil when Redis is not configured
	cfg        *config.Config
	loc        *time.Location
}

// NewSheetHandler constructs a SheetHandler.
func NewSheetHandler(productSvc *service.ProductService, syncSvc *service.SyncService, sheets *gsheets.Client, syncLock *lock.SyncLock, cfg *config.Config, loc *time.Location) *SheetHandler {
	return &SheetHandler{
		productSvc: productSvc,
		syncSvc:    syncSvc,
		sheets:     sheets,
		syncLock:   syncLock,
		cfg:        cfg,
		loc:        loc,
	}
}

// sheetParams holds the validated query parameters shared by the sheet
// endpoints.
type sheetParams struct {
	spreadsheetID string
	worksheet     string
	logWorksheet  string
	suppliers     bool
	create        bool
	keyColumn     string
	createMissing bool
}

// parseParams validates the request. On failure it writes the 400 and
// returns false.
func (h *SheetHandler) parseParams(c *gin.Context) (sheetParams, bool) {
	if !h.cfg.PayTraq.HasCredentials() {
		utils.Fail(c, 400, utils.CodeConfigError, "Missing PAYTRAQ_API_KEY or PAYTRAQ_API_TOKEN", nil)
		return sheetParams{}, false
	}
	if h.sheets == nil {
		utils.Fail(c, 400, utils.CodeConfigError, "Missing GOOGLE_SERVICE_ACCOUNT_JSON", nil)
		return sheetParams{}, false
	}

	p := sheetParams{
		spreadsheetID: c.Query("spreadsheet_id"),
		worksheet:     c.DefaultQuery("worksheet", defaultWorksheet),
		logWorksheet:  c.DefaultQuery("log_worksheet", defaultLogWorksheet),
		suppliers:     utils.BoolParam(c.Query("suppliers")),
		create:        utils.BoolParam(c.DefaultQuery("create", "1")),
		keyColumn:     c.DefaultQuery("key", models.KeyItemID),
		createMissing: utils.BoolParam(c.Query("create_missing")),
	}
	if p.spreadsheetID == "" {
		utils.Fail(c, 400, utils.CodeConfigError, "Missing spreadsheet_id parameter", nil)
		return sheetParams{}, false
	}
	if p.keyColumn != models.KeyItemID && p.keyColumn != models.KeyCode {
		utils.Fail(c, 400, utils.CodeConfigError, "key must be ItemID or Code", nil)
		return sheetParams{}, false
	}
	return p, true
}

// acquireLock takes the advisory lock when Redis is configured. The
// returned release func is a no-op otherwise.
func (h *SheetHandler) acquireLock(c *gin.Context, spreadsheetID string) (func(), bool) {
	if h.syncLock == nil {
		return func() {}, true
	}
	release, err := h.syncLock.Acquire(c.Request.Context(), spreadsheetID)
	if err != nil {
		failFromError(c, err, nil)
		return nil, false
	}
	return release, true
}

func (h *SheetHandler) options(p sheetParams) service.SyncOptions {
	return service.SyncOptions{
		KeyColumn:      p.keyColumn,
		LogGranularity: h.cfg.Sync.LogGranularity,
		CreateMissing:  p.createMissing,
	}
}

func (h *SheetHandler) logSchema() []string {
	if h.cfg.Sync.LogGranularity == config.LogPerRecord {
		return models.ChangeLogColumnsJSON
	}
	return models.ChangeLogColumns
}

// ExportAll fully overwrites a worksheet with the entire catalog.
func (h *SheetHandler) ExportAll(c *gin.Context) {
	p, ok := h.parseParams(c)
	if !ok {
		return
	}
	release, ok := h.acquireLock(c, p.spreadsheetID)
	if !ok {
		return
	}
	defer release()

	ctx := c.Request.Context()
	records, debug, err := h.productSvc.FetchCatalog(ctx, p.suppliers)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	ws, err := h.sheets.Worksheet(ctx, p.spreadsheetID, p.worksheet, models.ProductColumns, p.create)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	res, err := h.syncSvc.ExportAll(ctx, ws, records, h.options(p))
	if err != nil {
		failFromError(c, err, debug)
		return
	}
	res.Debug = utils.TailStrings(debug, debugTail)

	utils.OK(c, gin.H{"result": res})
}

// SyncToday appends products created today that the mirror does not know
// yet (create-sync).
func (h *SheetHandler) SyncToday(c *gin.Context) {
	p, ok := h.parseParams(c)
	if !ok {
		return
	}
	release, ok := h.acquireLock(c, p.spreadsheetID)
	if !ok {
		return
	}
	defer release()

	ctx := c.Request.Context()
	win := service.TodayWindow(time.Now(), h.loc)

	records, debug, err := h.productSvc.FetchCatalog(ctx, p.suppliers)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	ws, err := h.sheets.Worksheet(ctx, p.spreadsheetID, p.worksheet, models.ProductColumns, p.create)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	res, err := h.syncSvc.SyncCreatedToday(ctx, ws, records, win, h.options(p))
	if err != nil {
		failFromError(c, err, debug)
		return
	}
	res.Debug = utils.TailStrings(debug, debugTail)

	utils.OK(c, gin.H{
		"window_utc": gin.H{"start": win.StartISO(), "end": win.EndISO()},
		"result":     res,
	})
}

// SyncUpdated reconciles products updated today against the mirror and
// appends field-level diffs to the change log (update-sync).
func (h *SheetHandler) SyncUpdated(c *gin.Context) {
	p, ok := h.parseParams(c)
	if !ok {
		return
	}
	release, ok := h.acquireLock(c, p.spreadsheetID)
	if !ok {
		return
	}
	defer release()

	ctx := c.Request.Context()
	win := service.TodayWindow(time.Now(), h.loc)

	records, debug, err := h.productSvc.FetchCatalog(ctx, p.suppliers)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	ws, err := h.sheets.Worksheet(ctx, p.spreadsheetID, p.worksheet, models.ProductColumns, p.create)
	if err != nil {
		failFromError(c, err, debug)
		return
	}
	logWs, err := h.sheets.Worksheet(ctx, p.spreadsheetID, p.logWorksheet, h.logSchema(), true)
	if err != nil {
		failFromError(c, err, debug)
		return
	}

	res, err := h.syncSvc.SyncUpdatedToday(ctx, ws, logWs, records, win, h.options(p))
	if err != nil {
		failFromError(c, err, debug)
		return
	}
	res.Debug = utils.TailStrings(debug, debugTail)

	utils.OK(c, gin.H{
		"window_utc": gin.H{"start": win.StartISO(), "end": win.EndISO()},
		"result":     res,
	})
}
