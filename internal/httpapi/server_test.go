package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/auth"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/backoffice"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/report"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/store"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testOrigin   = "http://localhost:8000"
	testCarID    = "car-1"
	otherCarID   = "car-2"
	testCustomer = "customer-1"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 8, 30, 0, 0, time.UTC)
}

func sequence(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

type dayPayload struct {
	Date   string          `json:"date"`
	Price  decimal.Decimal `json:"price"`
	Paid   decimal.Decimal `json:"paid"`
	Status string          `json:"status"`
}

type reservationPayload struct {
	ID         string          `json:"id"`
	CarID      string          `json:"carId"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	IsPaid     bool            `json:"isPaid"`
	Days       []dayPayload    `json:"days"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func mustRepository(test *testing.T) *store.Repository {
	test.Helper()
	ctx := context.Background()
	repository, err := store.NewRepository(store.NewMemoryBackend(), ledger.MustCalendar("Asia/Baku"))
	require.NoError(test, err)
	require.NoError(test, repository.SaveCars(ctx, []ledger.Car{
		{ID: testCarID, Brand: "Toyota", Model: "Prius", Plate: "10-AA-001", BasePricePerDay: decimal.NewFromInt(100), Status: ledger.CarStatusFree},
		{ID: otherCarID, Brand: "Kia", Model: "Rio", Plate: "10-BB-002", BasePricePerDay: decimal.NewFromInt(60), Status: ledger.CarStatusFree},
	}))
	require.NoError(test, repository.SaveCustomers(ctx, []ledger.Customer{
		{ID: testCustomer, FirstName: "Aysel", LastName: "Mammadova", Phone: "+994501112233", CreatedAt: fixedClock()},
	}))
	require.NoError(test, repository.SaveUsers(ctx, []ledger.User{
		{ID: "user_1", Username: "admin", Password: "secret", Role: "admin"},
	}))
	return repository
}

func mustServer(test *testing.T) *httptest.Server {
	test.Helper()
	repository := mustRepository(test)
	calendar := ledger.MustCalendar("Asia/Baku")
	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)

	ledgerService, err := ledger.NewService(repository, calendar, fixedClock,
		ledger.WithIDGenerator(sequence("res")),
		ledger.WithOperationLogger(NewOperationLogger(zap.NewNop(), collectors)),
	)
	require.NoError(test, err)
	backofficeService, err := backoffice.NewService(repository, calendar, fixedClock, backoffice.WithIDGenerator(sequence("rec")))
	require.NoError(test, err)
	reportService, err := report.NewService(repository, calendar, fixedClock)
	require.NoError(test, err)
	issuer, err := auth.NewIssuer([]byte("test-secret"), time.Hour, fixedClock)
	require.NoError(test, err)
	authService, err := auth.NewService(repository, issuer)
	require.NoError(test, err)

	router, err := NewRouter(Config{AllowedOrigins: []string{testOrigin}}, Dependencies{
		Ledger:     ledgerService,
		Backoffice: backofficeService,
		Reports:    reportService,
		Auth:       authService,
		Logger:     zap.NewNop(),
		Metrics:    collectors,
		Gatherer:   registry,
	})
	require.NoError(test, err)
	server := httptest.NewServer(router)
	test.Cleanup(server.Close)
	return server
}

func execRequest(test *testing.T, server *httptest.Server, method string, path string, body any) (*http.Response, []byte) {
	test.Helper()
	var reader io.Reader
	switch typed := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(typed)
	default:
		encoded, err := json.Marshal(typed)
		require.NoError(test, err)
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(test, err)
	if reader != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := server.Client().Do(request)
	require.NoError(test, err)
	defer response.Body.Close()
	payload, err := io.ReadAll(response.Body)
	require.NoError(test, err)
	return response, payload
}

func decode[T any](test *testing.T, payload []byte) T {
	test.Helper()
	var value T
	require.NoError(test, json.Unmarshal(payload, &value), string(payload))
	return value
}

func requireDecimal(test *testing.T, expected string, actual decimal.Decimal) {
	test.Helper()
	require.True(test, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestReservationLifecycle(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/reservations", gin.H{
		"carId":      testCarID,
		"customerId": testCustomer,
		"startAt":    "2024-03-10T10:00",
		"endAt":      "2024-03-13T10:00",
	})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	created := decode[reservationPayload](test, payload)
	require.Equal(test, "res-1", created.ID)
	require.Equal(test, "BOOKED", created.Status)
	require.Len(test, created.Days, 3, spew.Sdump(created.Days))
	requireDecimal(test, "300", created.TotalPrice)
	require.Equal(test, "2024-03-10", created.Days[0].Date)
	require.Equal(test, "unpaid", created.Days[0].Status)

	response, payload = execRequest(test, server, http.MethodPost, "/api/reservations", gin.H{
		"carId":      testCarID,
		"customerId": testCustomer,
		"startAt":    "2024-03-12T10:00",
		"endAt":      "2024-03-14T10:00",
	})
	require.Equal(test, http.StatusConflict, response.StatusCode)
	require.Equal(test, "overlap", decode[errorPayload](test, payload).Error)

	response, payload = execRequest(test, server, http.MethodPost, "/api/reservations/check", gin.H{
		"carId":   testCarID,
		"startAt": "2024-03-13T10:00",
		"endAt":   "2024-03-15T10:00",
	})
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Equal(test, map[string]bool{"overlap": false}, decode[map[string]bool](test, payload))

	_, payload = execRequest(test, server, http.MethodPost, "/api/reservations/check", gin.H{
		"carId":   testCarID,
		"startAt": "2024-03-12T09:00",
		"endAt":   "2024-03-13T09:00",
	})
	require.Equal(test, map[string]bool{"overlap": true}, decode[map[string]bool](test, payload))

	response, payload = execRequest(test, server, http.MethodPatch, "/api/reservations/day/res-1", gin.H{
		"daysToUpdate": []gin.H{
			{"date": "2024-03-10", "paid": 100},
			{"date": "2024-03-11", "paid": 40, "notes": "cash"},
			{"date": "2024-04-01", "paid": 5},
		},
	})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	updated := decode[reservationPayload](test, payload)
	require.Len(test, updated.Days, 3)
	requireDecimal(test, "140", updated.AmountPaid)
	require.Equal(test, "paid", updated.Days[0].Status)
	require.Equal(test, "partial", updated.Days[1].Status)
	require.False(test, updated.IsPaid)

	response, payload = execRequest(test, server, http.MethodPost, "/api/reservations/extend/res-1", gin.H{
		"daysToAdd":      2,
		"newPricePerDay": 80,
	})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	extended := decode[reservationPayload](test, payload)
	require.Len(test, extended.Days, 5)
	require.Equal(test, "2024-03-14", extended.Days[4].Date)
	requireDecimal(test, "460", extended.TotalPrice)

	response, payload = execRequest(test, server, http.MethodGet, "/api/cars", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	cars := decode[[]ledger.Car](test, payload)
	require.Equal(test, ledger.CarStatusReserved, cars[0].Status)

	response, _ = execRequest(test, server, http.MethodPatch, "/api/reservations/res-1", gin.H{"status": "bogus"})
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodPatch, "/api/reservations/res-1", gin.H{"status": "completed", "notes": "returned"})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	require.Equal(test, "COMPLETED", decode[reservationPayload](test, payload).Status)

	_, payload = execRequest(test, server, http.MethodGet, "/api/cars", nil)
	require.Equal(test, ledger.CarStatusFree, decode[[]ledger.Car](test, payload)[0].Status)

	response, payload = execRequest(test, server, http.MethodGet, "/api/reservations?customerId="+testCustomer, nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Len(test, decode[[]reservationPayload](test, payload), 1)

	response, _ = execRequest(test, server, http.MethodDelete, "/api/reservations/res-1", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	response, _ = execRequest(test, server, http.MethodDelete, "/api/reservations/res-1", nil)
	require.Equal(test, http.StatusNotFound, response.StatusCode)
	response, _ = execRequest(test, server, http.MethodGet, "/api/reservations/res-1", nil)
	require.Equal(test, http.StatusNotFound, response.StatusCode)
}

func TestReservationRequestValidation(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedError  string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/api/reservations", body: "{", expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidPayload},
		{name: "missing fields", method: http.MethodPost, path: "/api/reservations", body: gin.H{"carId": testCarID}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
		{name: "bad window", method: http.MethodPost, path: "/api/reservations", body: gin.H{"carId": testCarID, "customerId": testCustomer, "startAt": "soon", "endAt": "later"}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
		{name: "empty day edits", method: http.MethodPatch, path: "/api/reservations/day/res-1", body: gin.H{"daysToUpdate": []gin.H{}}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
		{name: "unknown reservation", method: http.MethodPatch, path: "/api/reservations/day/missing", body: gin.H{"daysToUpdate": []gin.H{{"date": "2024-03-10", "paid": 1}}}, expectedStatus: http.StatusNotFound, expectedError: errorCodeNotFound},
		{name: "extend without price", method: http.MethodPost, path: "/api/reservations/extend/res-1", body: gin.H{"daysToAdd": 2}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
		{name: "check with bad window", method: http.MethodPost, path: "/api/reservations/check", body: gin.H{"carId": testCarID, "startAt": "soon", "endAt": "later"}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
		{name: "extend too far", method: http.MethodPost, path: "/api/reservations/extend/res-1", body: gin.H{"daysToAdd": 3651, "newPricePerDay": 80}, expectedStatus: http.StatusBadRequest, expectedError: errorCodeInvalidRequest},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			response, payload := execRequest(test, server, testCase.method, testCase.path, testCase.body)
			require.Equal(test, testCase.expectedStatus, response.StatusCode, string(payload))
			require.Equal(test, testCase.expectedError, decode[errorPayload](test, payload).Error)
		})
	}
}

func TestCheckWithoutCarReportsNoOverlap(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/reservations/check", nil)
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	require.Equal(test, map[string]bool{"overlap": false}, decode[map[string]bool](test, payload))
}

func TestUpdateDaysDropsUnreadableDates(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/reservations", gin.H{
		"carId":      testCarID,
		"customerId": testCustomer,
		"startAt":    "2024-03-10T10:00",
		"endAt":      "2024-03-13T10:00",
	})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))

	response, payload = execRequest(test, server, http.MethodPatch, "/api/reservations/day/res-1", gin.H{
		"daysToUpdate": []gin.H{
			{"date": "2024-03-10", "paid": 100},
			{"date": "10.03.2024", "paid": 5},
		},
	})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	updated := decode[reservationPayload](test, payload)
	require.Len(test, updated.Days, 3)
	require.Equal(test, "2024-03-10", updated.Days[0].Date)
	requireDecimal(test, "100", updated.Days[0].Paid)
	require.Equal(test, "paid", updated.Days[0].Status)
	requireDecimal(test, "100", updated.AmountPaid)
}

func TestRecordEndpoints(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/cars", gin.H{"brand": "Hyundai", "model": "Elantra", "basePricePerDay": 70})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	car := decode[ledger.Car](test, payload)
	require.Equal(test, ledger.CarStatusFree, car.Status)

	response, _ = execRequest(test, server, http.MethodPost, "/api/cars", gin.H{"brand": "Hyundai"})
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodPatch, "/api/cars/"+car.ID, gin.H{"status": "SERVICE"})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	require.Equal(test, ledger.CarStatusService, decode[ledger.Car](test, payload).Status)

	response, _ = execRequest(test, server, http.MethodPatch, "/api/cars/missing", gin.H{"brand": "X"})
	require.Equal(test, http.StatusNotFound, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodGet, "/api/customers/"+testCustomer, nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Equal(test, "Aysel", decode[ledger.Customer](test, payload).FirstName)

	response, payload = execRequest(test, server, http.MethodGet, "/api/customers?q=mammad", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Len(test, decode[[]ledger.Customer](test, payload), 1)

	response, payload = execRequest(test, server, http.MethodPost, "/api/fines", gin.H{
		"carId": testCarID, "customerId": testCustomer, "amount": 50, "date": "2024-03-11", "reason": "speeding",
	})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	fine := decode[ledger.Fine](test, payload)

	response, payload = execRequest(test, server, http.MethodPatch, "/api/fines/"+fine.ID, gin.H{"amountPaid": 50})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	require.True(test, decode[ledger.Fine](test, payload).IsPaid)

	response, payload = execRequest(test, server, http.MethodGet, "/api/fines?month=2024-03&customerId="+testCustomer, nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	fines := decode[backoffice.FineList](test, payload)
	require.Len(test, fines.Items, 1)
	requireDecimal(test, "50", fines.Total)

	response, _ = execRequest(test, server, http.MethodGet, "/api/incomes?month=2024-13", nil)
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodPost, "/api/incomes", gin.H{"source": "transfer", "amount": 25, "date": "2024-03-12"})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	_, payload = execRequest(test, server, http.MethodGet, "/api/incomes?day=2024-03-12", nil)
	requireDecimal(test, "25", decode[backoffice.IncomeList](test, payload).Total)

	response, payload = execRequest(test, server, http.MethodPost, "/api/car-expenses", gin.H{"carId": testCarID, "title": "oil", "amount": 30, "when": "2024-03-02"})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	_, payload = execRequest(test, server, http.MethodGet, "/api/car-expenses?carId="+testCarID, nil)
	carExpenses := decode[backoffice.ExpenseList](test, payload)
	require.Equal(test, 1, carExpenses.Count)

	response, payload = execRequest(test, server, http.MethodPost, "/api/office-incidents", gin.H{"date": "2024-03-12", "description": "broken window"})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	incident := decode[ledger.Incident](test, payload)
	response, _ = execRequest(test, server, http.MethodDelete, "/api/office-incidents/"+incident.ID, nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	response, _ = execRequest(test, server, http.MethodDelete, "/api/office-incidents/"+incident.ID, nil)
	require.Equal(test, http.StatusNotFound, response.StatusCode)

	response, _ = execRequest(test, server, http.MethodDelete, "/api/admin-expenses/missing", nil)
	require.Equal(test, http.StatusNotFound, response.StatusCode)
}

func TestReportEndpoints(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/reservations", gin.H{
		"carId":      testCarID,
		"customerId": testCustomer,
		"startAt":    "2024-03-10T10:00",
		"endAt":      "2024-03-13T10:00",
	})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	execRequest(test, server, http.MethodPatch, "/api/reservations/day/res-1", gin.H{
		"daysToUpdate": []gin.H{{"date": "2024-03-10", "paid": 100}},
	})
	execRequest(test, server, http.MethodPost, "/api/incomes", gin.H{"source": "transfer", "amount": 50, "date": "2024-03-11"})
	execRequest(test, server, http.MethodPost, "/api/admin-expenses", gin.H{"title": "rent", "amount": 30, "when": "2024-03-05"})

	response, payload = execRequest(test, server, http.MethodGet, "/api/reports/financials?month=2024-03", nil)
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	financials := decode[report.FinancialReport](test, payload)
	requireDecimal(test, "300", financials.KPIs.ExpectedReservations)
	requireDecimal(test, "100", financials.KPIs.RecognizedReservations)
	requireDecimal(test, "200", financials.KPIs.PendingReservations)
	requireDecimal(test, "120", financials.KPIs.Net)
	require.Len(test, financials.PaidDays, 1)
	require.Len(test, financials.PendingDays, 2)

	response, _ = execRequest(test, server, http.MethodGet, "/api/reports/financials?day=2024-02-30", nil)
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodGet, "/api/reports/daily-summary?day=2024-03-10", nil)
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	requireDecimal(test, "100", decode[report.DailySummary](test, payload).ReservationRevenue)

	response, _ = execRequest(test, server, http.MethodGet, "/api/reports/single-car-monthly?carId="+testCarID, nil)
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	response, payload = execRequest(test, server, http.MethodGet, "/api/reports/single-car-monthly?carId="+testCarID+"&month=2024-03", nil)
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))

	response, payload = execRequest(test, server, http.MethodGet, "/api/reports/single-car-monthly/export?carId="+testCarID+"&month=2024-03&format=pdf", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Equal(test, "application/pdf", response.Header.Get("Content-Type"))
	require.Contains(test, response.Header.Get("Content-Disposition"), "car-car-1-2024-03.pdf")
	require.True(test, bytes.HasPrefix(payload, []byte("%PDF")))

	response, _ = execRequest(test, server, http.MethodGet, "/api/reports/single-car-monthly/export?carId="+testCarID+"&month=2024-03&format=doc", nil)
	require.Equal(test, http.StatusBadRequest, response.StatusCode)

	for _, path := range []string{
		"/api/reports/car-popularity",
		"/api/reports/car-profitability",
		"/api/reports/best-customers",
		"/api/reports/occupancy?month=2024-03",
		"/api/reports/average-duration",
		"/api/reports/revenue-by-brand",
		"/api/revenue?month=2024-03",
		"/api/dashboard-stats",
	} {
		response, payload = execRequest(test, server, http.MethodGet, path, nil)
		require.Equal(test, http.StatusOK, response.StatusCode, "%s: %s", path, payload)
	}

	_, payload = execRequest(test, server, http.MethodGet, "/api/revenue?day=2024-03-11", nil)
	revenue := decode[map[string]any](test, payload)
	require.EqualValues(test, 1, revenue["count"])

	_, payload = execRequest(test, server, http.MethodGet, "/api/calendar-reservations", nil)
	events := decode[[]map[string]any](test, payload)
	require.Len(test, events, 1)
	require.Equal(test, "2024-03-13", events[0]["end"])
}

func TestAuthEndpoints(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "secret"})
	require.Equal(test, http.StatusOK, response.StatusCode, string(payload))
	session := decode[auth.Session](test, payload)
	require.NotEmpty(test, session.Token)
	require.Equal(test, "admin", session.User.Role)

	response, payload = execRequest(test, server, http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "nope"})
	require.Equal(test, http.StatusUnauthorized, response.StatusCode)
	require.Equal(test, errorCodeInvalidCredentials, decode[errorPayload](test, payload).Error)

	response, payload = execRequest(test, server, http.MethodPost, "/api/auth/register", gin.H{"username": "clerk", "password": "pw", "role": "staff"})
	require.Equal(test, http.StatusCreated, response.StatusCode, string(payload))
	require.Equal(test, "clerk", decode[auth.Profile](test, payload).Username)

	response, payload = execRequest(test, server, http.MethodPost, "/api/auth/register", gin.H{"username": "clerk", "password": "pw", "role": "staff"})
	require.Equal(test, http.StatusConflict, response.StatusCode)
	require.Equal(test, errorCodeUsernameTaken, decode[errorPayload](test, payload).Error)

	response, _ = execRequest(test, server, http.MethodPost, "/api/auth/register", gin.H{"username": "nobody"})
	require.Equal(test, http.StatusBadRequest, response.StatusCode)
}

func TestRouterInfrastructure(test *testing.T) {
	test.Parallel()
	server := mustServer(test)

	response, payload := execRequest(test, server, http.MethodGet, "/healthz", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.JSONEq(test, `{"status":"ok"}`, string(payload))

	response, payload = execRequest(test, server, http.MethodGet, "/api/unknown", nil)
	require.Equal(test, http.StatusNotFound, response.StatusCode)
	require.Equal(test, errorCodeNotFound, decode[errorPayload](test, payload).Error)

	preflight, err := http.NewRequest(http.MethodOptions, server.URL+"/api/cars", nil)
	require.NoError(test, err)
	preflight.Header.Set("Origin", testOrigin)
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	preflightResponse, err := server.Client().Do(preflight)
	require.NoError(test, err)
	preflightResponse.Body.Close()
	require.Equal(test, http.StatusNoContent, preflightResponse.StatusCode)
	require.Equal(test, testOrigin, preflightResponse.Header.Get("Access-Control-Allow-Origin"))

	response, payload = execRequest(test, server, http.MethodGet, "/metrics", nil)
	require.Equal(test, http.StatusOK, response.StatusCode)
	require.Contains(test, string(payload), `fleetledger_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	require.Contains(test, string(payload), `route="unmatched"`)
}

func TestNewRouterRejectsMissingDependencies(test *testing.T) {
	test.Parallel()
	_, err := NewRouter(Config{}, Dependencies{})
	require.ErrorIs(test, err, ErrInvalidDependencies)

	_, err = NewRouter(Config{AllowedOrigins: []string{"localhost"}}, Dependencies{})
	require.Error(test, err)
	require.NotErrorIs(test, err, ErrInvalidDependencies)
}
