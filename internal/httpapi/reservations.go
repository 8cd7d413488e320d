package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type checkRequest struct {
	CarID    string `json:"carId"`
	StartAt  string `json:"startAt"`
	EndAt    string `json:"endAt"`
	IgnoreID string `json:"ignoreId"`
}

type createReservationRequest struct {
	CarID           string           `json:"carId"`
	CustomerID      string           `json:"customerId"`
	StartAt         string           `json:"startAt"`
	EndAt           string           `json:"endAt"`
	PricePerDay     *decimal.Decimal `json:"pricePerDay"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
	Destination     string           `json:"destination"`
	Deposit         *decimal.Decimal `json:"deposit"`
	Notes           string           `json:"notes"`
}

type updateDaysRequest struct {
	DaysToUpdate []ledger.DayEdit `json:"daysToUpdate"`
}

type updateReservationRequest struct {
	Status  *string          `json:"status"`
	Notes   *string          `json:"notes"`
	Deposit *decimal.Decimal `json:"deposit"`
}

type extendRequest struct {
	DaysToAdd      int              `json:"daysToAdd"`
	NewPricePerDay *decimal.Decimal `json:"newPricePerDay"`
	Notes          string           `json:"notes"`
}

func (handler *httpHandler) handleListReservations(ctx *gin.Context) {
	reservations, err := handler.ledger.ListReservations(ctx.Request.Context(), ctx.Query("customerId"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservations)
}

func (handler *httpHandler) handleGetReservation(ctx *gin.Context) {
	reservation, err := handler.ledger.GetReservation(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservation)
}

func (handler *httpHandler) handleCheckReservation(ctx *gin.Context) {
	var request checkRequest
	if !bindJSON(ctx, &request) {
		return
	}
	overlap, err := handler.ledger.CheckAvailability(ctx.Request.Context(), ledger.AvailabilityQuery{
		CarID:    request.CarID,
		StartAt:  request.StartAt,
		EndAt:    request.EndAt,
		IgnoreID: request.IgnoreID,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"overlap": overlap})
}

func (handler *httpHandler) handleCreateReservation(ctx *gin.Context) {
	var request createReservationRequest
	if !bindJSON(ctx, &request) {
		return
	}
	reservation, err := handler.ledger.CreateReservation(ctx.Request.Context(), ledger.CreateReservationInput{
		CarID:           request.CarID,
		CustomerID:      request.CustomerID,
		StartAt:         request.StartAt,
		EndAt:           request.EndAt,
		PricePerDay:     request.PricePerDay,
		DiscountPercent: valueOrZero(request.DiscountPercent),
		Destination:     request.Destination,
		Deposit:         valueOrZero(request.Deposit),
		Notes:           request.Notes,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, reservation)
}

func (handler *httpHandler) handleUpdateDays(ctx *gin.Context) {
	var request updateDaysRequest
	if !bindJSON(ctx, &request) {
		return
	}
	reservation, err := handler.ledger.UpdateDays(ctx.Request.Context(), ctx.Param("id"), request.DaysToUpdate)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservation)
}

func (handler *httpHandler) handleUpdateReservation(ctx *gin.Context) {
	var request updateReservationRequest
	if !bindJSON(ctx, &request) {
		return
	}
	patch := ledger.ReservationPatch{Notes: request.Notes, Deposit: request.Deposit}
	if request.Status != nil {
		status, err := ledger.ParseReservationStatus(*request.Status)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		patch.Status = &status
	}
	reservation, err := handler.ledger.UpdateReservation(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservation)
}

func (handler *httpHandler) handleExtendReservation(ctx *gin.Context) {
	var request extendRequest
	if !bindJSON(ctx, &request) {
		return
	}
	reservation, err := handler.ledger.Extend(ctx.Request.Context(), ctx.Param("id"), ledger.ExtendInput{
		DaysToAdd:   request.DaysToAdd,
		PricePerDay: request.NewPricePerDay,
		Notes:       request.Notes,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, reservation)
}

func (handler *httpHandler) handleDeleteReservation(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.ledger.DeleteReservation(ctx.Request.Context(), ctx.Param("id")))
}

func valueOrZero(value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return *value
}
