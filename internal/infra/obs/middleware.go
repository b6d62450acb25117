package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type Middleware struct {
	Logger *slog.Logger
	Tracer trace.Tracer
}

func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	log := m.Logger
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		attrs := []any{"method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "duration", time.Since(start), "request_id", c.GetString("request_id")}
		if c.Writer.Status() >= 500 {
			log.Error("http", attrs...)
			return
		}
		log.Info("http", attrs...)
	}
}

// Tracing opens a server span per request, continuing any W3C trace context
// the caller sent.
func (m Middleware) Tracing() gin.HandlerFunc {
	tracer := m.Tracer
	if tracer == nil {
		tracer = otel.Tracer("erent/http")
	}
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", name),
			attribute.Int("http.response.status_code", status),
			attribute.String("request.id", c.GetString("request_id")),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
