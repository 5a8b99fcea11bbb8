// Package httpapi exposes the capture, confirm and listing use cases over
// HTTP. Routes and payloads mirror the public API: POST /upload,
// PATCH /confirm, GET /:customer_code/list.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/metervision/meter-reading-service/internal/logging"
	"github.com/metervision/meter-reading-service/internal/service"
	"go.uber.org/zap"
)

// CaptureService submits a new reading.
type CaptureService interface {
	Capture(ctx context.Context, req service.CaptureRequest) (*service.CaptureResult, error)
}

// ConfirmService confirms or corrects a captured reading.
type ConfirmService interface {
	Confirm(ctx context.Context, measureUUID string, confirmedValue int64) error
}

// ListService lists a customer's readings.
type ListService interface {
	List(ctx context.Context, customerCode string, measureType string) (*service.ListResult, error)
}

// Server holds the use cases behind the HTTP surface
type Server struct {
	capture CaptureService
	confirm ConfirmService
	list    ListService
	logger  *zap.Logger
}

// NewServer creates a new HTTP server facade
func NewServer(capture CaptureService, confirm ConfirmService, list ListService, logger *zap.Logger) *Server {
	return &Server{
		capture: capture,
		confirm: confirm,
		list:    list,
		logger:  logger,
	}
}

// Engine builds the gin engine with all routes registered.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/upload", s.UploadMeasurement)
	r.PATCH("/confirm", s.ConfirmMeasurement)
	r.GET("/:customer_code/list", s.ListMeasurements)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		logging.WithRequestID(s.logger, requestID).Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
