package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"harilog/internal/logger"
	"harilog/pkg/logging"
	"harilog/pkg/models"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderActorID    = "X-Actor-Id"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorEmail = "X-Actor-Email"
)

func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		if raw != "" {
			path = path + "?" + raw
		}

		logFields := []interface{}{
			"status", statusCode,
			"latency", latency,
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}

		if errorMessage != "" {
			logFields = append(logFields, "error", errorMessage)
		}

		ctx := c.Request.Context()
		if statusCode >= 500 {
			log.ErrorwCtx(ctx, "HTTP Request", logFields...)
		} else {
			log.InfowCtx(ctx, "HTTP Request", logFields...)
		}
	}
}

func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.ErrorwCtx(c.Request.Context(), "Panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.AbortWithStatusJSON(500, gin.H{
			"error":      "internal server error",
			"error_code": "INTERNAL_ERROR",
		})
	})
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// ActivityDispatcher is the subset of the notifier the hook needs.
type ActivityDispatcher interface {
	Dispatch(ctx context.Context, rc models.RequestContext)
}

// ActivityMiddleware observes every completed request and hands it to the
// automation notifier. The actor identity arrives in trusted headers set
// by the authenticating edge; requests without an actor are skipped, so
// anonymous traffic never evaluates rules. Dispatch runs after the
// response is written and never affects the response itself.
func ActivityMiddleware(dispatcher ActivityDispatcher, now func() time.Time) gin.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(c *gin.Context) {
		c.Next()

		actorID, err := strconv.ParseInt(c.GetHeader(HeaderActorID), 10, 64)
		if err != nil || actorID < 1 {
			return
		}

		routeName := c.GetString("route_name")
		rc := models.NewRequestContext(
			actorID,
			c.GetHeader(HeaderActorName),
			c.GetHeader(HeaderActorEmail),
			c.Request.Method,
			routeName,
			c.Request.URL.Path,
			c.Writer.Status(),
			c.ClientIP(),
			now(),
		)

		ctx := logging.WithActorID(c.Request.Context(), strconv.FormatInt(actorID, 10))
		dispatcher.Dispatch(ctx, rc)
	}
}

// RouteName tags the request with a stable route name that rule patterns
// can match independently of path parameters.
func RouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}
