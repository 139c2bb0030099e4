package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"accounthub/internal/api/middleware"
	"accounthub/internal/auth"
	"accounthub/internal/config"
	"accounthub/internal/model"
	"accounthub/internal/pkg/metrics"
	"accounthub/internal/pkg/notify"
	"accounthub/internal/store"
	"accounthub/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Server 封装了 API 服务所需的依赖和路由处理。
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *gorm.DB
	router  *gin.Engine
	tokens  *token.Service
	authSvc AuthService
	users   UserStore
}

// AuthService 认证编排接口。
type AuthService interface {
	Login(ctx context.Context, username, password string) (*token.LoginTokens, error)
	Register(ctx context.Context, username, email, password, confirmPassword string) (string, error)
	VerifyEmail(ctx context.Context, tokenStr string) (*model.User, error)
	ForgetPassword(ctx context.Context, email string) error
}

// UserStore 用户管理接口。
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	ListPage(ctx context.Context, page, limit int) (*store.Page, error)
	UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) (*model.User, error)
	DeleteByID(ctx context.Context, id uint) error
}

// NewServer 初始化 API 服务器。
//
// 它负责：
// 1. 连接 MySQL 数据库并执行自动迁移
// 2. 初始化令牌服务、认证服务与邮件通知器
// 3. 初始化 Gin 路由引擎并注册路由
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return nil, err
	}

	metrics.InitMetrics()

	userStore := store.NewUserStore(db)
	tokens := token.NewService(&cfg.Token)
	mailer := notify.NewEmailNotifier(&cfg.Email, logger)
	authSvc := auth.NewService(userStore, tokens, mailer, logger, cfg.App.RedirectURL)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		router:  r,
		tokens:  tokens,
		authSvc: authSvc,
		users:   userStore,
	}
	s.registerRoutes()
	return s, nil
}

// Router 返回 HTTP 路由处理器。
func (s *Server) Router() http.Handler {
	return s.router
}

// Close 关闭数据库连接。
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// routeDef 路由与其权限声明。
//
// perms 为空表示公开路由；权限裁决统一由 Permission Gate 完成，
// 不依赖任何运行时反射。
type routeDef struct {
	method  string
	path    string
	perms   []auth.Permission
	handler gin.HandlerFunc
}

// registerRoutes 注册所有的 API 路由。
func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.Use(middleware.Authenticate(s.tokens, s.users))

	routes := []routeDef{
		{http.MethodPost, "/auth/login", nil, s.handleLogin},
		{http.MethodPost, "/auth/register", nil, s.handleRegister},
		{http.MethodPut, "/auth/email-verification/:token", nil, s.handleVerifyEmail},
		{http.MethodPost, "/auth/forget-password", nil, s.handleForgetPassword},

		{http.MethodPost, "/user", []auth.Permission{auth.PermissionAdmin}, s.handleCreateUser},
		{http.MethodGet, "/user", []auth.Permission{auth.PermissionUser, auth.PermissionAdmin}, s.handleListUsers},
		{http.MethodGet, "/user/profile", []auth.Permission{auth.PermissionAdmin}, s.handleProfile},
		{http.MethodGet, "/user/:id", nil, s.handleGetUser},
		{http.MethodPatch, "/user/:id", nil, s.handleUpdateUser},
		{http.MethodDelete, "/user/:id", nil, s.handleDeleteUser},
	}

	for _, r := range routes {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if len(r.perms) > 0 {
			handlers = append(handlers, middleware.RequirePermission(r.perms...))
		}
		handlers = append(handlers, r.handler)
		v1.Handle(r.method, r.path, handlers...)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if s.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	var one int
	if err := s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
