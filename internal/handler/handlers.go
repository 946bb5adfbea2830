package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"edge-gate/internal/auth"
	"edge-gate/internal/domain"
	"edge-gate/internal/middleware"
)

// Handlers contém os handlers da API e suas dependências.
type Handlers struct {
	svc           domain.RateLimiterService
	tokens        *auth.TokenManager
	tokenStore    domain.TokenStore
	checker       domain.CredentialChecker
	logger        domain.Logger
	prospectTTL   time.Duration
	secureCookies bool
	startTime     time.Time
}

// NewHandlers cria uma nova instância dos handlers.
func NewHandlers(
	svc domain.RateLimiterService,
	tokens *auth.TokenManager,
	tokenStore domain.TokenStore,
	checker domain.CredentialChecker,
	logger domain.Logger,
	prospectTTL time.Duration,
	secureCookies bool,
) *Handlers {
	return &Handlers{
		svc:           svc,
		tokens:        tokens,
		tokenStore:    tokenStore,
		checker:       checker,
		logger:        logger,
		prospectTTL:   prospectTTL,
		secureCookies: secureCookies,
		startTime:     time.Now(),
	}
}

// SetupRoutes configura as rotas da API. O gate de borda já deve estar
// registrado no router; aqui entram os limites por operação e os guards.
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/metrics", h.Metrics)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/login", middleware.RateLimit(h.svc, h.logger, "login"), h.Login)
		authRoutes.POST("/logout", h.Logout)
	}

	prospect := api.Group("/prospectos")
	prospect.Use(middleware.RateLimit(h.svc, h.logger, "prospect"))
	{
		prospect.POST("/token", h.IssueProspectToken)
		prospect.POST("/validar", h.ValidateProspectToken)
	}

	admin := api.Group("/admin")
	admin.Use(auth.RequireAuth(h.tokens, h.logger), auth.RequireAdmin(h.tokens, h.logger))
	{
		admin.GET("/ratelimit/status", h.RateLimitStatus)
		admin.POST("/ratelimit/reset", h.RateLimitReset)
	}
}

// Health implementa o health check básico.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "Edge Gate",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).String(),
	})
}

// Metrics expõe estatísticas básicas do processo.
func (h *Handlers) Metrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"service":    "Edge Gate",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(h.startTime).String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
	})
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
	Senha string `json:"senha" binding:"required"`
}

// Login valida as credenciais e emite o par de cookies de sessão: o JWT
// assinado e o espelho JSON dos claims para a UI.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "email and senha are required",
		})
		return
	}

	email := auth.SanitizeText(req.Email, 120)

	user, err := h.checker.Check(c.Request.Context(), email, req.Senha)
	if err != nil {
		h.logger.Warn("Login attempt failed", map[string]interface{}{
			"ip":    middleware.ClientIP(c),
			"email": email,
		})

		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "invalid credentials",
		})
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue session token", err, map[string]interface{}{
			"user_id": user.ID,
		})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to create session",
		})
		return
	}

	mirror, err := json.Marshal(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to create session",
		})
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetCookie(domain.CookieAuthToken, token, maxAge, "/", "", h.secureCookies, true)
	c.SetCookie(domain.CookieAuthUser, string(mirror), maxAge, "/", "", h.secureCookies, false)

	h.logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
		"ip":      middleware.ClientIP(c),
	})

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"expires_at": expiresAt.Unix(),
	})
}

// Logout encerra a sessão limpando os dois cookies.
func (h *Handlers) Logout(c *gin.Context) {
	c.SetCookie(domain.CookieAuthToken, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(domain.CookieAuthUser, "", -1, "/", "", h.secureCookies, false)

	c.JSON(http.StatusOK, gin.H{
		"message": "logged out",
	})
}

type prospectTokenRequest struct {
	ProspectoID string `json:"prospecto_id" binding:"required"`
}

// IssueProspectToken emite um token de prospecto com validade limitada e o
// entrega também como cookie.
func (h *Handlers) IssueProspectToken(c *gin.Context) {
	var req prospectTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "prospecto_id is required",
		})
		return
	}

	prospectoID, err := auth.ParseID(req.ProspectoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "prospecto_id must be a positive number",
		})
		return
	}

	now := time.Now()
	record := &domain.ProspectToken{
		Token:       uuid.New().String(),
		ProspectoID: prospectoID,
		ExpiresAt:   now.Add(h.prospectTTL),
		CreatedAt:   now,
	}

	if err := h.tokenStore.Save(c.Request.Context(), record); err != nil {
		h.logger.Error("Failed to save prospect token", err, map[string]interface{}{
			"prospecto_id": prospectoID,
		})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to issue prospect token",
		})
		return
	}

	c.SetCookie(domain.CookieProspectToken, record.Token, int(h.prospectTTL.Seconds()), "/", "", h.secureCookies, true)

	c.JSON(http.StatusCreated, gin.H{
		"token":      record.Token,
		"expires_at": record.ExpiresAt.Unix(),
	})
}

type validateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateProspectToken valida o token portador vindo do cookie ou do corpo.
func (h *Handlers) ValidateProspectToken(c *gin.Context) {
	token, err := c.Cookie(domain.CookieProspectToken)
	if err != nil || token == "" {
		var req validateTokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.Token
		}
	}

	token = auth.SanitizeText(token, 64)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "prospect token is required",
		})
		return
	}

	record, err := h.tokenStore.Validate(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrProspectTokenNotFound) || errors.Is(err, domain.ErrProspectTokenExpired) {
			h.logger.Warn("Invalid prospect token", map[string]interface{}{
				"ip":     middleware.ClientIP(c),
				"reason": err.Error(),
			})

			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid or expired prospect token",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to validate prospect token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prospecto_id": record.ProspectoID,
		"expires_at":   record.ExpiresAt.Unix(),
	})
}

// RateLimitStatus retorna a entrada atual de um identificador (admin).
func (h *Handlers) RateLimitStatus(c *gin.Context) {
	identifier := auth.SanitizeText(c.Query("identificador"), 128)
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "identificador query parameter is required",
		})
		return
	}

	entry, err := h.svc.Status(c.Request.Context(), identifier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to get rate limit status",
		})
		return
	}

	if entry == nil {
		c.JSON(http.StatusOK, gin.H{
			"identificador": identifier,
			"tracked":       false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identificador": identifier,
		"tracked":       true,
		"entry":         entry,
	})
}

type resetRequest struct {
	Identificador string `json:"identificador" binding:"required"`
}

// RateLimitReset limpa o rastreamento de um identificador (admin).
func (h *Handlers) RateLimitReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "bad_request",
			"message": "identificador is required",
		})
		return
	}

	identifier := auth.SanitizeText(req.Identificador, 128)

	if err := h.svc.Reset(c.Request.Context(), identifier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "unable to reset rate limit",
		})
		return
	}

	user, _ := auth.UserFromContext(c)
	fields := map[string]interface{}{
		"identificador": identifier,
	}
	if user != nil {
		fields["admin_id"] = user.ID
	}
	h.logger.Info("Rate limit reset by admin", fields)

	c.JSON(http.StatusOK, gin.H{
		"message":       "rate limit reset",
		"identificador": identifier,
	})
}
