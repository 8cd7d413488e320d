// Package httpapi serves the back-office JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/auth"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/backoffice"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/MarkoPoloResearchLab/fleetledger/internal/report"
	"github.com/MarkoPoloResearchLab/fleetledger/pkg/ledger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ErrInvalidDependencies reports a router built without a required service.
var ErrInvalidDependencies = errors.New("httpapi: invalid dependencies")

// Dependencies are the services and observability hooks behind the API.
type Dependencies struct {
	Ledger     *ledger.Service
	Backoffice *backoffice.Service
	Reports    *report.Service
	Auth       *auth.Service
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
}

func (deps Dependencies) validate() error {
	switch {
	case deps.Ledger == nil:
		return fmt.Errorf("%w: ledger service is nil", ErrInvalidDependencies)
	case deps.Backoffice == nil:
		return fmt.Errorf("%w: backoffice service is nil", ErrInvalidDependencies)
	case deps.Reports == nil:
		return fmt.Errorf("%w: report service is nil", ErrInvalidDependencies)
	case deps.Auth == nil:
		return fmt.Errorf("%w: auth service is nil", ErrInvalidDependencies)
	}
	return nil
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	router, err := NewRouter(cfg, deps)
	if err != nil {
		return err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fleetledger api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter validates cfg and deps and builds the gin engine.
func NewRouter(cfg Config, deps Dependencies) (*gin.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := &httpHandler{
		logger:     logger,
		ledger:     deps.Ledger,
		backoffice: deps.Backoffice,
		reports:    deps.Reports,
		auth:       deps.Auth,
	}
	return setupRouter(cfg, handler, deps.Metrics, deps.Gatherer), nil
}

func setupRouter(cfg Config, handler *httpHandler, collectors *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(observeRequests(collectors, handler.logger))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.Use(requestTimeout(cfg.RequestTimeout))

	api.POST("/auth/login", handler.handleLogin)
	api.POST("/auth/register", handler.handleRegister)

	api.GET("/reservations", handler.handleListReservations)
	api.GET("/reservations/:id", handler.handleGetReservation)
	api.POST("/reservations/check", handler.handleCheckReservation)
	api.POST("/reservations", handler.handleCreateReservation)
	api.PATCH("/reservations/day/:id", handler.handleUpdateDays)
	api.PATCH("/reservations/:id", handler.handleUpdateReservation)
	api.POST("/reservations/extend/:id", handler.handleExtendReservation)
	api.DELETE("/reservations/:id", handler.handleDeleteReservation)

	api.GET("/cars", handler.handleListCars)
	api.POST("/cars", handler.handleCreateCar)
	api.PATCH("/cars/:id", handler.handleUpdateCar)
	api.DELETE("/cars/:id", handler.handleDeleteCar)

	api.GET("/customers", handler.handleListCustomers)
	api.GET("/customers/:id", handler.handleGetCustomer)
	api.POST("/customers", handler.handleCreateCustomer)
	api.PATCH("/customers/:id", handler.handleUpdateCustomer)
	api.DELETE("/customers/:id", handler.handleDeleteCustomer)

	api.GET("/fines", handler.handleListFines)
	api.POST("/fines", handler.handleCreateFine)
	api.PATCH("/fines/:id", handler.handleUpdateFine)
	api.DELETE("/fines/:id", handler.handleDeleteFine)

	api.GET("/incomes", handler.handleListIncomes)
	api.POST("/incomes", handler.handleCreateIncome)
	api.DELETE("/incomes/:id", handler.handleDeleteIncome)

	api.GET("/admin-expenses", handler.handleListAdminExpenses)
	api.POST("/admin-expenses", handler.handleCreateAdminExpense)
	api.DELETE("/admin-expenses/:id", handler.handleDeleteAdminExpense)

	api.GET("/car-expenses", handler.handleListCarExpenses)
	api.POST("/car-expenses", handler.handleCreateCarExpense)
	api.DELETE("/car-expenses/:id", handler.handleDeleteCarExpense)

	api.GET("/office-incidents", handler.handleListIncidents)
	api.POST("/office-incidents", handler.handleCreateIncident)
	api.DELETE("/office-incidents/:id", handler.handleDeleteIncident)

	api.GET("/revenue", handler.handleRevenue)
	api.GET("/dashboard-stats", handler.handleDashboard)
	api.GET("/calendar-reservations", handler.handleCalendar)

	reports := api.Group("/reports")
	reports.GET("/financials", handler.handleFinancials)
	reports.GET("/daily-summary", handler.handleDailySummary)
	reports.GET("/single-car-monthly", handler.handleSingleCarMonthly)
	reports.GET("/single-car-monthly/export", handler.handleSingleCarExport)
	reports.GET("/car-popularity", handler.handleCarPopularity)
	reports.GET("/car-profitability", handler.handleCarProfitability)
	reports.GET("/best-customers", handler.handleBestCustomers)
	reports.GET("/occupancy", handler.handleOccupancy)
	reports.GET("/average-duration", handler.handleAverageDuration)
	reports.GET("/revenue-by-brand", handler.handleRevenueByBrand)

	router.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, errorResponse(errorCodeNotFound, "route not found"))
	})

	return router
}

func corsConfig(cfg Config) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Origin", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.allowsAnyOrigin() {
		config.AllowAllOrigins = true
		return config
	}
	config.AllowOrigins = cfg.AllowedOrigins
	config.AllowCredentials = true
	return config
}

type httpHandler struct {
	logger     *zap.Logger
	ledger     *ledger.Service
	backoffice *backoffice.Service
	reports    *report.Service
	auth       *auth.Service
}
