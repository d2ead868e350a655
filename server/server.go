// Package server exposes a Calendar over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/subtlepseudonym/lukashian"
	"github.com/subtlepseudonym/lukashian/transport"
)

const (
	defaultDays = 30
	maxDays     = 365
	dateLayout  = "2006-01-02"
)

type Server struct {
	Calendar *lukashian.Calendar
	Layout   lukashian.Layout
	Logger   *slog.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

// DateResponse is a resolved instant
type DateResponse struct {
	Unix      int64          `json:"unix"`
	Date      lukashian.Date `json:"date"`
	Formatted string         `json:"formatted"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Side  string `json:"side,omitempty"`
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Handler returns the routes served by s
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/now", s.HandleNow)
	router.GET("/date", s.HandleDate)
	router.GET("/tables", s.HandleTables)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func (s *Server) HandleNow(c *gin.Context) {
	s.resolve(c, s.now().UnixMilli())
}

// HandleDate resolves the unix query parameter, in milliseconds
func (s *Server) HandleDate(c *gin.Context) {
	param := c.Query("unix")
	unix, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unable to parse unix parameter"})
		return
	}
	s.resolve(c, unix)
}

func (s *Server) resolve(c *gin.Context, unix int64) {
	date, err := s.Calendar.Resolve(c.Request.Context(), unix)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DateResponse{
		Unix:      unix,
		Date:      date,
		Formatted: date.Format(s.Layout),
	})
}

// HandleTables returns tables covering the days after start. Invalid
// parameters fall back to their defaults: start is yesterday and days is
// 30. With format=cbor the tables are CBOR encoded.
func (s *Server) HandleTables(c *gin.Context) {
	now := s.now().UTC()
	y, m, d := now.AddDate(0, 0, -1).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if param, err := time.Parse(dateLayout, c.Query("start")); err == nil {
		start = param
	}

	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days <= 0 || days > maxDays {
		days = defaultDays
	}
	end := start.AddDate(0, 0, days)

	tables, err := s.Calendar.TablesFor(c.Request.Context(), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		s.writeError(c, err)
		return
	}

	if c.Query("format") == "cbor" {
		data, err := transport.MarshalCBOR(tables)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/cbor", data)
		return
	}

	c.JSON(http.StatusOK, transport.FromTables(tables).WithSpan(start, end))
}

func (s *Server) writeError(c *gin.Context, err error) {
	var oor *lukashian.OutOfRangeError
	switch {
	case errors.As(err, &oor):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Side: oor.Side.String()})
	case errors.Is(err, lukashian.ErrTableNotBuilt):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case errors.Is(err, lukashian.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		s.logger().Error("handle request", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
