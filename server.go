package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/middlewares"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/models/reports"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/workflow"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// respondError maps the error taxonomy onto HTTP statuses: missing
// references are 404, operator input that can never produce a valid lot
// is 422, anything else is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsInvalidInput(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func computeProductionHandler(persist bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.ProductionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		lot, txns, warnings, err := workflow.ComputeProduction(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		if !persist {
			c.JSON(http.StatusOK, gin.H{
				"lot":          lot,
				"transactions": txns,
				"warnings":     warnings,
			})
			return
		}
		batchId, warnings, err := workflow.PostLot(ctx, lot, txns, warnings)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"lot":      lot,
			"batch_id": batchId,
			"warnings": warnings,
		})
	}
}

func recordMovementHandler(c *gin.Context) {
	var input workflow.MovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txn, warnings, err := workflow.RecordMovement(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": txn, "warnings": warnings})
}

func onHandHandler(c *gin.Context) {
	pcode := c.Query("pcode")
	store := c.Query("store")
	if pcode == "" || store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pcode and store are required"})
		return
	}
	qty, err := models.OnHand(c.Request.Context(), pcode, store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pcode": pcode, "store": store, "on_hand": qty})
}

func transactionsHandler(c *gin.Context) {
	pcode := c.Query("pcode")
	store := c.Query("store")
	if pcode == "" || store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pcode and store are required"})
		return
	}
	var since *time.Time
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = &t
	}
	txns, err := models.QueryTransactions(c.Request.Context(), pcode, store, since)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

func valuationHandler(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store is required"})
		return
	}
	total, err := models.Valuation(c.Request.Context(), store)
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := reports.GetValuationReport(c.Request.Context(), store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store, "total": total, "products": rows})
}

func valuationExcelHandler(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store is required"})
		return
	}
	reports.ExportValuationExcel(c.Request.Context(), c.Writer, store)
}

func rebuildCostBasisHandler(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store is required"})
		return
	}
	if err := workflow.RebuildCostBasis(c.Request.Context(), store); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/production/compute", computeProductionHandler(false))
	api.POST("/production/lots", computeProductionHandler(true))
	api.GET("/production/lots", func(c *gin.Context) {
		store := c.Query("store")
		if store == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "store is required"})
			return
		}
		lots, err := models.GetProductionLots(c.Request.Context(), store)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lots": lots})
	})
	api.GET("/production/lots/:lotId", func(c *gin.Context) {
		lot, err := models.GetProductionLot(c.Request.Context(), c.Param("lotId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lot)
	})

	api.POST("/inventory/movements", recordMovementHandler)
	api.GET("/inventory/on-hand", onHandHandler)
	api.GET("/inventory/transactions", transactionsHandler)
	api.GET("/inventory/valuation", valuationHandler)
	api.POST("/internal/ops/cost-basis/rebuild", rebuildCostBasisHandler)

	api.GET("/reports/valuation.xlsx", valuationExcelHandler)

	api.GET("/formulas/:code", func(c *gin.Context) {
		formula, err := models.GetFormula(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, formula)
	})
	api.GET("/formulas/:code/candidates", func(c *gin.Context) {
		formula, err := models.GetFormula(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		candidates, err := models.GetPrimaryCandidates(c.Request.Context(), formula.Type)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"candidates": candidates})
	})
	api.PUT("/formulas/:code", func(c *gin.Context) {
		var input models.NewFormula
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Code = c.Param("code")
		formula, err := models.UpsertFormula(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, formula)
	})

	api.GET("/products/:code", func(c *gin.Context) {
		product, err := models.GetProduct(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})
	api.PUT("/products/:code", func(c *gin.Context) {
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Code = c.Param("code")
		product, err := models.UpsertProduct(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})

	api.PUT("/stores/:code", func(c *gin.Context) {
		var input models.NewStore
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.Code = c.Param("code")
		store, err := models.UpsertStore(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, store)
	})
	api.GET("/stores/:code", func(c *gin.Context) {
		store, err := models.GetStore(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, store)
	})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before dependencies are ready; until the DB
	// is connected, app endpoints answer 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "X-Store-Code", "X-User-Name", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "X-Correlation-Id")

	r.Use(cors.New(corsConfig))
	r.Use(middlewares.RequestContextMiddleware())
	r.Use(gin.Recovery())

	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Fatal(err.Error())
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithFields(logrus.Fields{"field": "shutdown"}).Error(err.Error())
		}
	}
}
