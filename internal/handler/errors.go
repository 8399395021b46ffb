package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/paytraq_sync/internal/lock"
	"github.com/GTDGit/paytraq_sync/internal/utils"
	"github.com/GTDGit/paytraq_sync/pkg/gsheets"
	"github.com/GTDGit/paytraq_sync/pkg/paytraq"
)

// failFromError maps the error taxonomy onto HTTP statuses. Spreadsheet
// failures stay opaque; the underlying cause is already logged.
func failFromError(c *gin.Context, err error, debug []string) {
	switch {
	case errors.Is(err, paytraq.ErrUnauthorized):
		utils.Fail(c, 502, utils.CodeUpstreamAuth, err.Error(), debug)
	case errors.Is(err, paytraq.ErrHTTPStatus):
		utils.Fail(c, 502, utils.CodeUpstreamHTTP, err.Error(), debug)
	case errors.Is(err, paytraq.ErrParse):
		utils.Fail(c, 502, utils.CodeUpstreamParse, err.Error(), debug)
	case errors.Is(err, gsheets.ErrKeyColumn):
		utils.Fail(c, 400, utils.CodeConfigError, err.Error(), debug)
	case errors.Is(err, gsheets.ErrAccess):
		utils.Fail(c, 500, utils.CodeMirrorAccess, "spreadsheet access error", debug)
	case errors.Is(err, lock.ErrHeld):
		utils.Fail(c, 409, utils.CodeSyncInProgress, "another sync run holds the lock for this spreadsheet", debug)
	default:
		utils.Fail(c, 500, utils.CodeInternal, "internal error", debug)
	}
}
