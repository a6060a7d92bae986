package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/mandate-infra-prototype/internal/infra"
	"github.com/xela07ax/mandate-infra-prototype/internal/infra/auth"
	"github.com/xela07ax/mandate-infra-prototype/internal/router/handler"
)

type RouterServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler      *handler.AuthHandler      // /auth/token
	authorityHandler *handler.AuthorityHandler // /v1/router, /v1/oracle, /v1/mandates
	eventHandler     *handler.EventHandler     // /v1/events (журнал)
}

// NewRouterServer инициализирует сервер authority со всеми зависимостями
func NewRouterServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	authorityH *handler.AuthorityHandler,
	eventH *handler.EventHandler,
) *RouterServer {
	s := &RouterServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("router-api"),
		cfg:              cfg,
		authValidator:    validator,
		authHandler:      authH,
		authorityHandler: authorityH,
		eventHandler:     eventH,
	}

	s.routes()
	return s
}

func (s *RouterServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auth.TracingMiddleware)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (Открыты для всех) ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	// Middleware только аутентифицирует: авторизация (admin / oracle /
	// субъект мандата) — предусловие самих операций ядра
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		// PolicyState (глобальный синглтон конфигурации)
		r.Route("/v1/router", func(r chi.Router) {
			r.Post("/initialize", s.authorityHandler.Initialize) // Bootstrap (один раз)
			r.Post("/pause", s.authorityHandler.SetPause)        // Circuit breaker выдачи
			r.Post("/threshold", s.authorityHandler.UpdateThreshold)
			r.Get("/state", s.authorityHandler.GetState)
		})

		// OracleRegistry
		r.Post("/v1/oracle/scores", s.authorityHandler.SetScore)

		// MandateAuthority (issue / revoke / veto)
		r.Route("/v1/mandates", func(r chi.Router) {
			r.Post("/", s.authorityHandler.Mint)
			r.Post("/revoke", s.authorityHandler.Revoke)
			r.Post("/veto", s.authorityHandler.Veto) // Только админ
		})

		// Журнал событий (Observability)
		r.Get("/v1/events", s.eventHandler.GetEvents)
	})
}

// ServeHTTP позволяет использовать RouterServer как стандартный http.Handler
func (s *RouterServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
