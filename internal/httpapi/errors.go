package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/auth"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	errorCodeInvalidPayload     = "invalid_payload"
	errorCodeInvalidRequest     = "invalid_request"
	errorCodeNotFound           = "not_found"
	errorCodeOverlap            = "overlap"
	errorCodeInvalidCredentials = "invalid_credentials"
	errorCodeUsernameTaken      = "username_taken"
	errorCodeInternal           = "internal_error"
)

// respondError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a generic 500.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrConflict):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeOverlap, "car is already booked for the selected dates"))
	case errors.Is(err, auth.ErrUsernameTaken):
		ctx.JSON(http.StatusConflict, errorResponse(errorCodeUsernameTaken, err.Error()))
	case errors.Is(err, auth.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, errorResponse(errorCodeInvalidCredentials, err.Error()))
	case errors.Is(err, ledger.ErrNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeNotFound, err.Error()))
	case isClientError(err):
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidRequest, err.Error()))
	default:
		handler.logger.Error("request failed",
			zap.String("route", ctx.FullPath()),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, errorResponse(errorCodeInternal, "internal server error"))
	}
}

func isClientError(err error) bool {
	return errors.Is(err, ledger.ErrValidation) ||
		errors.Is(err, ledger.ErrInvalidDate) ||
		errors.Is(err, ledger.ErrInvalidInstant) ||
		errors.Is(err, ledger.ErrInvalidStatus) ||
		errors.Is(err, ledger.ErrInvalidCarStatus)
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error":   code,
		"message": message,
	}
}

// bindJSON decodes the request body into target. An empty body leaves target
// untouched; a malformed one is answered with 400 and reported as false.
func bindJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, errorResponse(errorCodeInvalidPayload, "expected JSON body"))
		return false
	}
	return true
}

// periodQuery reads the day, month and year filters; nil means unfiltered.
func periodQuery(ctx *gin.Context) (*ledger.Period, error) {
	period, found, err := ledger.ResolvePeriod(ctx.Query("day"), ctx.Query("month"), ctx.Query("year"))
	if err != nil {
		return nil, ledger.WrapError("parse", "period", "invalid", fmt.Errorf("%w: %v", ledger.ErrValidation, err))
	}
	if !found {
		return nil, nil
	}
	return &period, nil
}

func deletedResponse() gin.H {
	return gin.H{"message": "Deleted"}
}
