package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"edge-gate/internal/domain"
	"edge-gate/internal/logger"
	"edge-gate/internal/service"
)

// checkTimeout limita o tempo de uma verificação de rate limit.
const checkTimeout = 5 * time.Second

// RateLimiterMiddleware aplica a política de uma operação por requisição.
// O identificador rastreado é operação:ip, então o mesmo IP tem orçamentos
// independentes por operação.
type RateLimiterMiddleware struct {
	svc       domain.RateLimiterService
	logger    domain.Logger
	operation string
}

// RateLimit cria o middleware de rate limiting para uma operação da tabela
// de políticas.
func RateLimit(svc domain.RateLimiterService, log domain.Logger, operation string) gin.HandlerFunc {
	m := &RateLimiterMiddleware{
		svc:       svc,
		logger:    log,
		operation: operation,
	}
	return m.Handle
}

// Handle é o handler principal do middleware.
func (m *RateLimiterMiddleware) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	requestID := m.getRequestID(c)
	clientIP := ClientIP(c)

	ctx = logger.ContextWithRequestInfo(ctx, requestID, clientIP, c.Request.URL.Path, c.Request.UserAgent())
	log := m.logger.WithContext(ctx)

	policy := m.svc.Policy(m.operation)
	identifier := service.BuildIdentifier(policy.Name, clientIP)

	result, err := m.svc.Check(ctx, identifier, policy)
	if err != nil {
		log.Error("Rate limiter service error", err, map[string]interface{}{
			"identifier": identifier,
		})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to process rate limit check",
		})
		c.Abort()
		return
	}

	m.setRateLimitHeaders(c, result)

	if !result.Allowed {
		log.Info("Request rate limited", map[string]interface{}{
			"identifier":    identifier,
			"limit":         result.Limit,
			"blocked_until": result.BlockedUntil,
		})

		response := gin.H{
			"error":   "rate_limit_exceeded",
			"message": policy.Message,
			"details": gin.H{
				"limit":      result.Limit,
				"remaining":  result.Remaining,
				"reset_time": result.ResetAt.Unix(),
			},
		}

		if result.BlockedUntil != nil {
			response["details"].(gin.H)["blocked_until"] = result.BlockedUntil.Unix()
		}

		c.JSON(http.StatusTooManyRequests, response)
		c.Abort()
		return
	}

	c.Next()
}

// setRateLimitHeaders define os headers informativos de rate limiting.
func (m *RateLimiterMiddleware) setRateLimitHeaders(c *gin.Context, result *domain.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

	if !result.Allowed {
		retryAfter := int(time.Until(result.ResetAt).Seconds())
		if retryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
		}
	}
}

// getRequestID obtém ou gera um Request ID para tracking.
func (m *RateLimiterMiddleware) getRequestID(c *gin.Context) string {
	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		return requestID
	}

	requestID := uuid.New().String()
	c.Header("X-Request-ID", requestID)
	return requestID
}
