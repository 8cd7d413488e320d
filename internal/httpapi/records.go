package httpapi

import (
	"net/http"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/backoffice"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type carRequest struct {
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Plate           string          `json:"plate"`
	BasePricePerDay decimal.Decimal `json:"basePricePerDay"`
}

type carPatchRequest struct {
	Brand           *string          `json:"brand"`
	Model           *string          `json:"model"`
	Plate           *string          `json:"plate"`
	BasePricePerDay *decimal.Decimal `json:"basePricePerDay"`
	Status          *string          `json:"status"`
}

type customerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type customerPatchRequest struct {
	Notes         *string `json:"notes"`
	IsBlacklisted *bool   `json:"isBlacklisted"`
}

type fineRequest struct {
	CarID      string          `json:"carId"`
	CustomerID string          `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	Points     int             `json:"points"`
	Date       string          `json:"date"`
	Reason     string          `json:"reason"`
	IsPaid     bool            `json:"isPaid"`
}

type finePatchRequest struct {
	AmountPaid *decimal.Decimal `json:"amountPaid"`
	IsPaid     *bool            `json:"isPaid"`
}

type incomeRequest struct {
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
}

type expenseRequest struct {
	CarID    string          `json:"carId"`
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	When     string          `json:"when"`
	Notes    string          `json:"notes"`
}

type incidentRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

func (request expenseRequest) input() backoffice.ExpenseInput {
	return backoffice.ExpenseInput{
		CarID:    request.CarID,
		Title:    request.Title,
		Category: request.Category,
		Amount:   request.Amount,
		When:     request.When,
		Notes:    request.Notes,
	}
}

func (handler *httpHandler) handleListCars(ctx *gin.Context) {
	cars, err := handler.backoffice.ListCars(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cars)
}

func (handler *httpHandler) handleCreateCar(ctx *gin.Context) {
	var request carRequest
	if !bindJSON(ctx, &request) {
		return
	}
	car, err := handler.backoffice.CreateCar(ctx.Request.Context(), backoffice.CarInput{
		Brand:           request.Brand,
		Model:           request.Model,
		Plate:           request.Plate,
		BasePricePerDay: request.BasePricePerDay,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, car)
}

func (handler *httpHandler) handleUpdateCar(ctx *gin.Context) {
	var request carPatchRequest
	if !bindJSON(ctx, &request) {
		return
	}
	car, err := handler.backoffice.UpdateCar(ctx.Request.Context(), ctx.Param("id"), backoffice.CarPatch{
		Brand:           request.Brand,
		Model:           request.Model,
		Plate:           request.Plate,
		BasePricePerDay: request.BasePricePerDay,
		Status:          request.Status,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, car)
}

func (handler *httpHandler) handleDeleteCar(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteCar(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListCustomers(ctx *gin.Context) {
	customers, err := handler.backoffice.ListCustomers(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, customers)
}

func (handler *httpHandler) handleGetCustomer(ctx *gin.Context) {
	customer, err := handler.backoffice.GetCustomer(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, customer)
}

func (handler *httpHandler) handleCreateCustomer(ctx *gin.Context) {
	var request customerRequest
	if !bindJSON(ctx, &request) {
		return
	}
	customer, err := handler.backoffice.CreateCustomer(ctx.Request.Context(), backoffice.CustomerInput{
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Phone:     request.Phone,
		Email:     request.Email,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, customer)
}

func (handler *httpHandler) handleUpdateCustomer(ctx *gin.Context) {
	var request customerPatchRequest
	if !bindJSON(ctx, &request) {
		return
	}
	customer, err := handler.backoffice.UpdateCustomer(ctx.Request.Context(), ctx.Param("id"), backoffice.CustomerPatch{
		Notes:         request.Notes,
		IsBlacklisted: request.IsBlacklisted,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, customer)
}

func (handler *httpHandler) handleDeleteCustomer(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteCustomer(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListFines(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	fines, err := handler.backoffice.ListFines(ctx.Request.Context(), backoffice.FineFilter{
		CustomerID: ctx.Query("customerId"),
		Period:     period,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, fines)
}

func (handler *httpHandler) handleCreateFine(ctx *gin.Context) {
	var request fineRequest
	if !bindJSON(ctx, &request) {
		return
	}
	fine, err := handler.backoffice.CreateFine(ctx.Request.Context(), backoffice.FineInput{
		CarID:      request.CarID,
		CustomerID: request.CustomerID,
		Amount:     request.Amount,
		Points:     request.Points,
		Date:       request.Date,
		Reason:     request.Reason,
		IsPaid:     request.IsPaid,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, fine)
}

func (handler *httpHandler) handleUpdateFine(ctx *gin.Context) {
	var request finePatchRequest
	if !bindJSON(ctx, &request) {
		return
	}
	fine, err := handler.backoffice.UpdateFine(ctx.Request.Context(), ctx.Param("id"), backoffice.FinePatch{
		AmountPaid: request.AmountPaid,
		IsPaid:     request.IsPaid,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, fine)
}

func (handler *httpHandler) handleDeleteFine(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteFine(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListIncomes(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	incomes, err := handler.backoffice.ListIncomes(ctx.Request.Context(), period)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, incomes)
}

func (handler *httpHandler) handleCreateIncome(ctx *gin.Context) {
	var request incomeRequest
	if !bindJSON(ctx, &request) {
		return
	}
	income, err := handler.backoffice.CreateIncome(ctx.Request.Context(), backoffice.IncomeInput{
		Source:      request.Source,
		Description: request.Description,
		Amount:      request.Amount,
		Date:        request.Date,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, income)
}

func (handler *httpHandler) handleDeleteIncome(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteIncome(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListAdminExpenses(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	expenses, err := handler.backoffice.ListAdminExpenses(ctx.Request.Context(), period)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, expenses)
}

func (handler *httpHandler) handleCreateAdminExpense(ctx *gin.Context) {
	var request expenseRequest
	if !bindJSON(ctx, &request) {
		return
	}
	expense, err := handler.backoffice.CreateAdminExpense(ctx.Request.Context(), request.input())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, expense)
}

func (handler *httpHandler) handleDeleteAdminExpense(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteAdminExpense(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListCarExpenses(ctx *gin.Context) {
	period, err := periodQuery(ctx)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	expenses, err := handler.backoffice.ListCarExpenses(ctx.Request.Context(), ctx.Query("carId"), period)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, expenses)
}

func (handler *httpHandler) handleCreateCarExpense(ctx *gin.Context) {
	var request expenseRequest
	if !bindJSON(ctx, &request) {
		return
	}
	expense, err := handler.backoffice.CreateCarExpense(ctx.Request.Context(), request.input())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, expense)
}

func (handler *httpHandler) handleDeleteCarExpense(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteCarExpense(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) handleListIncidents(ctx *gin.Context) {
	incidents, err := handler.backoffice.ListIncidents(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, incidents)
}

func (handler *httpHandler) handleCreateIncident(ctx *gin.Context) {
	var request incidentRequest
	if !bindJSON(ctx, &request) {
		return
	}
	incident, err := handler.backoffice.CreateIncident(ctx.Request.Context(), backoffice.IncidentInput{
		Date:        request.Date,
		Description: request.Description,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, incident)
}

func (handler *httpHandler) handleDeleteIncident(ctx *gin.Context) {
	handler.respondDeleted(ctx, handler.backoffice.DeleteIncident(ctx.Request.Context(), ctx.Param("id")))
}

func (handler *httpHandler) respondDeleted(ctx *gin.Context, err error) {
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, deletedResponse())
}
