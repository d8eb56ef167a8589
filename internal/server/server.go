package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/smallbiznis/adopet/internal/adoption"
	adoptiondomain "github.com/smallbiznis/adopet/internal/adoption/domain"
	"github.com/smallbiznis/adopet/internal/animal"
	animaldomain "github.com/smallbiznis/adopet/internal/animal/domain"
	"github.com/smallbiznis/adopet/internal/auth"
	"github.com/smallbiznis/adopet/internal/auth/token"
	"github.com/smallbiznis/adopet/internal/authorization"
	"github.com/smallbiznis/adopet/internal/config"
	"github.com/smallbiznis/adopet/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/adopet/internal/dashboard/domain"
	"github.com/smallbiznis/adopet/internal/expense"
	expensedomain "github.com/smallbiznis/adopet/internal/expense/domain"
	"github.com/smallbiznis/adopet/internal/expensecategory"
	categorydomain "github.com/smallbiznis/adopet/internal/expensecategory/domain"
	"github.com/smallbiznis/adopet/internal/observability"
	obsmiddleware "github.com/smallbiznis/adopet/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/adopet/internal/observability/metrics"
	obstracing "github.com/smallbiznis/adopet/internal/observability/tracing"
	"github.com/smallbiznis/adopet/internal/organization"
	organizationdomain "github.com/smallbiznis/adopet/internal/organization/domain"
	"github.com/smallbiznis/adopet/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	auth.Module,
	organization.Module,
	animal.Module,
	expensecategory.Module,
	expense.Module,
	adoption.Module,
	dashboard.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Development: obsCfg.Development(),
		Classify:    classifyErrorForLog,
		QuietRoutes: []string{"/health", "/metrics"},
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

// NewHandler wraps the engine with the CORS policy.
func NewHandler(cfg config.Config, r *gin.Engine) http.Handler {
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		MaxAge:         600,
	}).Handler(r)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg, r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	tokens          *token.Manager
	organizationSvc organizationdomain.Service
	animalSvc       animaldomain.Service
	categorySvc     categorydomain.Service
	expenseSvc      expensedomain.Service
	adoptionSvc     adoptiondomain.Service
	dashboardSvc    dashboarddomain.Service
	searchLimiter   *ratelimit.PublicSearchLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Tokens          *token.Manager
	OrganizationSvc organizationdomain.Service
	AnimalSvc       animaldomain.Service
	CategorySvc     categorydomain.Service
	ExpenseSvc      expensedomain.Service
	AdoptionSvc     adoptiondomain.Service
	DashboardSvc    dashboarddomain.Service
	SearchLimiter   *ratelimit.PublicSearchLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics            `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		tokens:          p.Tokens,
		organizationSvc: p.OrganizationSvc,
		animalSvc:       p.AnimalSvc,
		categorySvc:     p.CategorySvc,
		expenseSvc:      p.ExpenseSvc,
		adoptionSvc:     p.AdoptionSvc,
		dashboardSvc:    p.DashboardSvc,
		searchLimiter:   p.SearchLimiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerOrganizationRoutes()
	svc.registerAnimalRoutes()
	svc.registerExpenseRoutes()
	svc.registerAdoptionRoutes()
	svc.registerDashboardRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerOrganizationRoutes() {
	ongs := s.engine.Group("/ongs")

	ongs.POST("", s.RegisterOrganization)
	ongs.GET("", s.PublicSearchRateLimit(), s.SearchOrganizations)
	ongs.GET("/help-types", s.ListHelpTypes)
	ongs.POST("/login", s.Login)
	ongs.POST("/logout", s.TenantRequired(), s.Logout)
	ongs.PATCH("/me/location", s.TenantRequired(), s.UpdateOrganizationLocation)
	ongs.GET("/:id", s.GetOrganization)
}

func (s *Server) registerAnimalRoutes() {
	animals := s.engine.Group("/animals")

	animals.GET("", s.PublicSearchRateLimit(), s.SearchAnimals)
	animals.GET("/species", s.ListSpecies)
	animals.GET("/characteristics", s.GetCharacteristics)

	tenant := animals.Group("", s.TenantRequired())
	{
		tenant.GET("/mine", s.ListMyAnimals)
		tenant.POST("", s.CreateAnimal)
		tenant.GET("/:id", s.GetAnimal)
		tenant.PATCH("/:id/status", s.UpdateAnimalStatus)
		tenant.GET("/:id/adoptions", s.ListAnimalAdoptions)
	}
}

func (s *Server) registerExpenseRoutes() {
	categories := s.engine.Group("/expense-categories", s.TenantRequired())
	{
		categories.GET("", s.ListExpenseCategories)
		categories.POST("", s.CreateExpenseCategory)
		categories.DELETE("/:id", s.DeleteExpenseCategory)
	}

	expenses := s.engine.Group("/expenses", s.TenantRequired())
	{
		expenses.POST("", s.CreateExpense)
		expenses.GET("", s.ListExpenses)
		expenses.GET("/totals-by-category", s.ExpenseTotalsByCategory)
		expenses.GET("/:id", s.GetExpense)
	}
}

func (s *Server) registerAdoptionRoutes() {
	adoptions := s.engine.Group("/adoptions", s.TenantRequired())
	{
		adoptions.POST("", s.CreateAdoption)
		adoptions.POST("/:id/close", s.CloseAdoption)
	}
}

func (s *Server) registerDashboardRoutes() {
	s.engine.GET("/dashboard", s.TenantRequired(), s.GetDashboard)
}
