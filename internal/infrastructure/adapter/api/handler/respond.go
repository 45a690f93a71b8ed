package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"

	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/dto"
)

const maxPageSize = 100

// respondError maps a domain error onto an HTTP status and the standard
// error envelope.
func respondError(c *gin.Context, err error) {
	code := errs.ErrorCode(err)
	c.JSON(httpStatus(code), dto.ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

// httpStatus translates a domain error code to an HTTP status
func httpStatus(code int) int {
	switch code {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeInvalidStateTransition, errs.CodeSequenceConflict:
		return http.StatusConflict
	case errs.CodeProviderError:
		return http.StatusBadGateway
	case errs.CodeInternalServer, errs.CodeChecksumMismatch:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// badRequest writes a 400 with the invariant-violation code
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    errs.CodeInvariantViolation,
		Message: message,
	})
}

// parseIDParam parses an xid path parameter, writing a 400 on failure
func parseIDParam(c *gin.Context, name string) (xid.ID, bool) {
	id, err := xid.FromString(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name+" format")
		return xid.ID{}, false
	}
	return id, true
}

// parseListOptions reads pageSize, pageToken and kind query parameters
func parseListOptions(c *gin.Context) (persistence.ListOptions, bool) {
	var query struct {
		PageSize  int    `form:"pageSize"`
		PageToken string `form:"pageToken"`
		Kind      string `form:"kind"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return persistence.ListOptions{}, false
	}
	if query.PageSize < 0 || query.PageSize > maxPageSize {
		badRequest(c, "pageSize out of range")
		return persistence.ListOptions{}, false
	}

	opts := persistence.ListOptions{PageSize: query.PageSize, Kind: query.Kind}
	if query.PageToken != "" {
		token, err := xid.FromString(query.PageToken)
		if err != nil {
			badRequest(c, "invalid pageToken format")
			return persistence.ListOptions{}, false
		}
		opts.PageToken = &token
	}
	return opts, true
}
