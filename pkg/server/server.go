// Package server exposes a matchcache.Cache over a small HTTP API: an
// echo engine, a request-counting middleware backed by VictoriaMetrics,
// and one handler per operation.
package server

import (
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/labstack/echo/v4"

	"github.com/orderlots/matchcache/pkg/config"
	"github.com/orderlots/matchcache/pkg/directory"
	"github.com/orderlots/matchcache/pkg/matchcache"
)

// Engine wires a cache and an optional directory up to an echo server.
type Engine struct {
	srv       *echo.Echo
	cache     *matchcache.Cache
	directory directory.Directory
}

// orderRequest is the wire shape for POST /orders.
type orderRequest struct {
	ID         string `json:"id"`
	SecurityID string `json:"security_id"`
	Side       string `json:"side"`
	Qty        uint64 `json:"qty"`
	UserID     string `json:"user_id"`
	CompanyID  string `json:"company_id"`
}

// New returns a new server.Engine that wires HTTP requests to cache.
// dir may be nil; when non-nil, it's exposed read-only at
// GET /users/:id/company (the caller is expected to have already
// passed the same directory into matchcache.New, so the two stay in
// sync without the server owning any cache state itself).
func New(cache *matchcache.Cache, dir directory.Directory, cfg config.Settings) *Engine {
	e := echo.New()
	eng := &Engine{srv: e, cache: cache, directory: dir}

	if cfg.MetricsEnabled {
		if err := metrics.InitPush(cfg.MetricsPushURL, cfg.MetricsPushInterval, `label="matchcache"`, true); err != nil {
			e.Logger.Fatalf("failed to connect to metrics platform: %+v", err)
		}
	}

	e.Use(countRequests)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"name":    "matchcache",
			"version": "0.1",
		})
	})

	e.POST("/orders", eng.addOrder)
	e.GET("/orders", eng.listOrders)
	e.DELETE("/orders/:id", eng.cancelOrder)
	e.DELETE("/users/:id", eng.cancelUser)
	e.DELETE("/securities/:id", eng.cancelSecurity)
	e.GET("/securities/:id/matching-size", eng.matchingSize)
	e.GET("/securities/:id/matches", eng.securityMatches)
	e.GET("/users/:id/company", eng.userCompany)

	eng.srv.Logger.Debugf("server created")
	return eng
}

// Run starts the engine listening on addr.
func (eng *Engine) Run(addr string) error {
	return eng.srv.Start(addr)
}

func (eng *Engine) addOrder(c echo.Context) error {
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Qty == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "qty must be non-zero")
	}

	o := matchcache.NewOrder(req.ID, req.SecurityID, matchcache.ParseSide(req.Side), req.Qty, req.UserID, req.CompanyID)
	if err := eng.cache.AddOrder(o); err != nil {
		metrics.GetOrCreateCounter(`orders_rejected_total`).Inc()
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	metrics.GetOrCreateCounter(`orders_added_total`).Inc()
	c.Logger().Infof("order received: %+v", req)
	return c.JSON(http.StatusAccepted, req)
}

func (eng *Engine) listOrders(c echo.Context) error {
	return c.JSON(http.StatusOK, eng.cache.GetAllOrders())
}

func (eng *Engine) cancelOrder(c echo.Context) error {
	id := c.Param("id")
	if err := eng.cache.CancelOrder(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	metrics.GetOrCreateCounter(`orders_cancelled_total`).Inc()
	return c.NoContent(http.StatusNoContent)
}

func (eng *Engine) cancelUser(c echo.Context) error {
	userID := c.Param("id")
	if err := eng.cache.CancelOrdersForUser(userID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (eng *Engine) cancelSecurity(c echo.Context) error {
	securityID := c.Param("id")
	minQty, err := strconv.ParseUint(c.QueryParam("min_qty"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "min_qty must be a non-negative integer")
	}
	if err := eng.cache.CancelOrdersForSecurityWithMinQty(securityID, minQty); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (eng *Engine) matchingSize(c echo.Context) error {
	securityID := c.Param("id")
	size, err := eng.cache.GetMatchingSizeForSecurity(securityID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	metrics.GetOrCreateCounter(`matches_queried_total{security="` + securityID + `"}`).Inc()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"security_id":   securityID,
		"matching_size": size,
	})
}

func (eng *Engine) securityMatches(c echo.Context) error {
	securityID := c.Param("id")
	records, err := eng.cache.GetOrderMatchesForSecurity(securityID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (eng *Engine) userCompany(c echo.Context) error {
	if eng.directory == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no directory configured")
	}
	userID := c.Param("id")
	company, ok := eng.directory.CompanyOf(userID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown user")
	}
	return c.JSON(http.StatusOK, map[string]string{"user_id": userID, "company_id": company})
}

// countRequests increments per-path and total request counters.
func countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := metrics.GetOrCreateCounter(`requests_total{path="` + c.Path() + `"}`)
		path.Inc()
		metrics.GetOrCreateCounter(`request_total`).Inc()
		return next(c)
	}
}
