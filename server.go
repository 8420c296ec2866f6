package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"bitbucket.org/zeatech/resto_backend/middlewares"
	"bitbucket.org/zeatech/resto_backend/models"
	"bitbucket.org/zeatech/resto_backend/models/reports"
	"bitbucket.org/zeatech/resto_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("resto-backend")

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// writeError maps ledger errors onto HTTP statuses. InsufficientStockError is
// a conflict the caller can show verbatim ("not enough stock for X");
// unclassified errors are server-side failures and must not leak as 400s.
func writeError(c *gin.Context, err error) {
	var dupErr *utils.DuplicateError
	switch {
	case errors.Is(err, models.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrBadInput), errors.As(err, &dupErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), "server", "writeError", "unhandled error", c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if fields := utils.ProcessValidationErrors(err); fields != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return false
	}
	return true
}

func paramId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// dateRange reads from/to query params (YYYY-MM-DD); to is inclusive
// end-of-day.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Unix(0, 0).UTC()
	to := time.Now().UTC()
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return from, to, false
		}
		to = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return from, to, true
}

func registerRoutes(r *gin.Engine) {

	r.POST("/restaurants", func(c *gin.Context) {
		var input models.NewRestaurant
		if !bindJSON(c, &input) {
			return
		}
		restaurant, err := models.CreateRestaurant(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, restaurant)
	})

	scoped := r.Group("/", middlewares.RestaurantScopeMiddleware())

	scoped.GET("/restaurant", func(c *gin.Context) {
		restaurantId, _ := utils.GetRestaurantIdFromContext(c.Request.Context())
		restaurant, err := models.GetRestaurantById(c.Request.Context(), restaurantId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, restaurant)
	})

	// stock items
	scoped.GET("/stock-items", func(c *gin.Context) {
		var items []*models.StockItem
		var err error
		if keyword := c.Query("search"); keyword != "" {
			items, err = models.SearchStockItems(c.Request.Context(), keyword)
		} else {
			items, err = models.GetStockItems(c.Request.Context())
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})
	scoped.GET("/stock-items/low", func(c *gin.Context) {
		items, err := models.GetLowStockItems(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})
	scoped.GET("/stock-items/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		item, err := models.GetStockItem(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})
	scoped.POST("/stock-items", func(c *gin.Context) {
		var input models.NewStockItem
		if !bindJSON(c, &input) {
			return
		}
		item, err := models.CreateStockItem(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	})
	scoped.PUT("/stock-items/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewStockItem
		if !bindJSON(c, &input) {
			return
		}
		item, err := models.UpdateStockItem(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})
	scoped.DELETE("/stock-items/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		item, err := models.DeleteStockItem(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	})

	// suppliers
	scoped.GET("/suppliers", func(c *gin.Context) {
		suppliers, err := models.GetSuppliers(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, suppliers)
	})
	scoped.POST("/suppliers", func(c *gin.Context) {
		var input models.NewSupplier
		if !bindJSON(c, &input) {
			return
		}
		supplier, err := models.CreateSupplier(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, supplier)
	})
	scoped.PUT("/suppliers/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewSupplier
		if !bindJSON(c, &input) {
			return
		}
		supplier, err := models.UpdateSupplier(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	})
	scoped.DELETE("/suppliers/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		supplier, err := models.DeleteSupplier(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	})

	// stock movements
	scoped.GET("/stock-movements", func(c *gin.Context) {
		itemId, _ := strconv.Atoi(c.Query("item_id"))
		movements, err := models.GetStockMovements(c.Request.Context(), itemId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, movements)
	})
	scoped.POST("/stock-movements", func(c *gin.Context) {
		var input models.NewStockMovement
		if !bindJSON(c, &input) {
			return
		}
		movement, err := models.CreateStockMovement(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, movement)
	})
	scoped.DELETE("/stock-movements/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		movement, err := models.DeleteStockMovement(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, movement)
	})

	// purchases
	scoped.GET("/purchases", func(c *gin.Context) {
		purchases, err := models.GetPurchases(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchases)
	})
	scoped.GET("/purchases/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		purchase, err := models.GetPurchase(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchase)
	})
	scoped.POST("/purchases", func(c *gin.Context) {
		var input models.NewPurchase
		if !bindJSON(c, &input) {
			return
		}
		purchase, err := models.CreatePurchase(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, purchase)
	})
	scoped.POST("/purchases/:id/items", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewPurchaseLine
		if !bindJSON(c, &input) {
			return
		}
		detail, err := models.CreatePurchaseItem(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, detail)
	})
	scoped.DELETE("/purchases/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		purchase, err := models.DeletePurchase(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchase)
	})
	scoped.DELETE("/purchase-items/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		detail, err := models.DeletePurchaseItem(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	// sales
	scoped.GET("/sales", func(c *gin.Context) {
		sales, err := models.GetSales(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sales)
	})
	scoped.GET("/sales/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		sale, err := models.GetSale(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sale)
	})
	scoped.POST("/sales", func(c *gin.Context) {
		var input models.NewSale
		if !bindJSON(c, &input) {
			return
		}
		sale, err := models.CreateSale(c.Request.Context(), &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, sale)
	})
	scoped.POST("/sales/:id/items", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		var input models.NewSaleLine
		if !bindJSON(c, &input) {
			return
		}
		detail, err := models.CreateSaleItem(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, detail)
	})
	scoped.DELETE("/sales/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		sale, err := models.DeleteSale(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sale)
	})
	scoped.DELETE("/sale-items/:id", func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		detail, err := models.DeleteSaleItem(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	// reports (read-only; reports pull, the ledger never pushes)
	scoped.GET("/reports/sales-by-item", func(c *gin.Context) {
		from, to, ok := dateRange(c)
		if !ok {
			return
		}
		var itemName *string
		if v := c.Query("item_name"); v != "" {
			itemName = &v
		}
		records, err := reports.GetSalesByItemReport(c.Request.Context(), from, to, itemName)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	})
	scoped.GET("/reports/sales-by-item/export", func(c *gin.Context) {
		from, to, ok := dateRange(c)
		if !ok {
			return
		}
		f, err := reports.ExportSalesByItemExcel(c.Request.Context(), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename=sales-by-item.xlsx")
		if err := f.Write(c.Writer); err != nil {
			c.Status(http.StatusInternalServerError)
		}
	})
	scoped.GET("/reports/purchases-by-supplier", func(c *gin.Context) {
		from, to, ok := dateRange(c)
		if !ok {
			return
		}
		records, err := reports.GetPurchasesBySupplierReport(c.Request.Context(), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	})
	scoped.GET("/reports/inventory-valuation", func(c *gin.Context) {
		records, err := reports.GetInventoryValuationReport(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	})
	scoped.GET("/reports/profit-summary", func(c *gin.Context) {
		from, to, ok := dateRange(c)
		if !ok {
			return
		}
		record, err := reports.GetProfitSummaryReport(c.Request.Context(), from, to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
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

	// Shutdown coordination: SIGTERM triggers a graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until the DB is ready, app endpoints return 503.
	r := gin.New()
	r.Use(gin.Recovery())

	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
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
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
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
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "x-restaurant-id", "x-user-id", "x-user-name", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	log.Printf("listening on :%s", port)

	// Connect dependencies after the listener is up.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	<-sigCtx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
