package middleware

import (
	"net"
	"net/http"
	"strings"

	"edge-gate/internal/domain"

	"github.com/gin-gonic/gin"
)

// apiPrefix delimita o namespace de API protegido pelo gate.
const apiPrefix = "/api/"

// defaultStaticPrefixes são ativos estáticos e páginas públicas de
// autenticação que passam direto, sem nenhuma checagem adicional.
var defaultStaticPrefixes = []string{
	"/health",
	"/metrics",
	"/favicon.ico",
	"/static/",
	"/assets/",
	"/images/",
	"/fonts/",
	"/login",
	"/recuperar-senha",
	"/redefinir-senha",
}

// defaultBootstrapPaths são endpoints de bootstrap de autenticação; eles
// aplicam o próprio rate limiting, o gate não os barra.
var defaultBootstrapPaths = []string{
	"/api/auth/login",
	"/api/auth/esqueci-senha",
	"/api/auth/redefinir-senha",
	"/api/auth/definir-senha",
	"/api/prospectos/token",
}

// defaultProspectPaths são endpoints acessíveis com o cookie de token de
// prospecto, sem sessão completa.
var defaultProspectPaths = []string{
	"/api/prospectos/validar",
	"/api/prospectos/pedido",
}

// GateConfig parametriza o gate de borda.
type GateConfig struct {
	// DevMode desativa o filtro de bots
	DevMode bool

	// BotDenylist substitui a lista de assinaturas de automação
	BotDenylist []string

	// Overrides opcionais das listas de caminhos
	StaticPrefixes []string
	BootstrapPaths []string
	ProspectPaths  []string
}

// edgeGate é a primeira linha de defesa de toda requisição: classifica o
// caminho e decide usando apenas metadados da requisição, sem tocar o banco.
type edgeGate struct {
	devMode        bool
	botDenylist    []string
	staticPrefixes []string
	bootstrapPaths []string
	prospectPaths  []string
	logger         domain.Logger
}

// NewEdgeGate cria o middleware do gate. Deve ser registrado antes de
// qualquer rota.
func NewEdgeGate(cfg GateConfig, logger domain.Logger) gin.HandlerFunc {
	gate := &edgeGate{
		devMode:        cfg.DevMode,
		botDenylist:    cfg.BotDenylist,
		staticPrefixes: cfg.StaticPrefixes,
		bootstrapPaths: cfg.BootstrapPaths,
		prospectPaths:  cfg.ProspectPaths,
		logger:         logger,
	}

	if gate.staticPrefixes == nil {
		gate.staticPrefixes = defaultStaticPrefixes
	}
	if gate.bootstrapPaths == nil {
		gate.bootstrapPaths = defaultBootstrapPaths
	}
	if gate.prospectPaths == nil {
		gate.prospectPaths = defaultProspectPaths
	}

	return gate.handle
}

// handle avalia os ramos em ordem; o primeiro que casar é terminal.
func (g *edgeGate) handle(c *gin.Context) {
	path := c.Request.URL.Path
	isAPI := strings.HasPrefix(path, apiPrefix)

	// 1. Filtro de bots: só no namespace de API e fora do modo de
	// desenvolvimento
	if isAPI && !g.devMode {
		if signature, found := g.detectBot(c.Request.UserAgent()); found {
			g.logger.Warn("Bot traffic rejected", map[string]interface{}{
				"ip":         ClientIP(c),
				"path":       path,
				"user_agent": c.Request.UserAgent(),
				"signature":  signature,
			})

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "automated traffic is not allowed",
			})
			return
		}
	}

	// 2. Ativos estáticos e páginas públicas passam direto
	if g.matchPrefix(path, g.staticPrefixes) {
		c.Next()
		return
	}

	hasSession := hasCookie(c, domain.CookieAuthToken) && hasCookie(c, domain.CookieAuthUser)

	if isAPI {
		// 3a. Bootstrap de autenticação: os endpoints se auto-limitam
		if g.matchPrefix(path, g.bootstrapPaths) {
			c.Next()
			return
		}

		// 3b. Superfície de prospecto exige o cookie portador
		if g.matchPrefix(path, g.prospectPaths) && hasCookie(c, domain.CookieProspectToken) {
			c.Next()
			return
		}

		// 3c. Checagem de posse dos cookies de sessão. A verificação de
		// assinatura fica com o guard de cada rota.
		if hasSession {
			c.Header("X-Content-Type-Options", "nosniff")
			c.Header("X-Frame-Options", "DENY")
			c.Header("X-XSS-Protection", "1; mode=block")
			c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
			c.Next()
			return
		}

		// 404 proposital: não revela a existência de APIs protegidas para
		// scanners não autenticados
		g.logger.Warn("Unauthenticated API access attempt", map[string]interface{}{
			"ip":         ClientIP(c),
			"path":       path,
			"method":     c.Request.Method,
			"user_agent": c.Request.UserAgent(),
		})

		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "resource not found",
		})
		return
	}

	// 4. Navegação de páginas: sem sessão redireciona para a raiz, exceto na
	// própria raiz (a UI de login precisa ser alcançável)
	if hasSession || path == "/" {
		c.Next()
		return
	}

	g.logger.Info("Unauthenticated page navigation redirected", map[string]interface{}{
		"ip":   ClientIP(c),
		"path": path,
	})

	c.Redirect(http.StatusFound, "/")
	c.Abort()
}

// detectBot procura assinaturas de automação no user-agent, sem diferenciar
// maiúsculas.
func (g *edgeGate) detectBot(userAgent string) (string, bool) {
	ua := strings.ToLower(userAgent)
	for _, signature := range g.botDenylist {
		if strings.Contains(ua, strings.ToLower(signature)) {
			return signature, true
		}
	}
	return "", false
}

func (g *edgeGate) matchPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// hasCookie verifica a presença de um cookie não vazio.
func hasCookie(c *gin.Context, name string) bool {
	value, err := c.Cookie(name)
	return err == nil && value != ""
}

// ClientIP extrai o IP de origem considerando proxies e load balancers.
// Prioridade: X-Forwarded-For > X-Real-IP > RemoteAddr > "unknown".
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
				return clientIP
			}
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
		return host
	}

	if c.Request.RemoteAddr != "" {
		return c.Request.RemoteAddr
	}

	return "unknown"
}
