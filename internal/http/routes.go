// Package http wires the gin router, middleware and handlers.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pemba1s1/Expenso-sub000/internal/config"
	"github.com/pemba1s1/Expenso-sub000/internal/http/handlers"
	"github.com/pemba1s1/Expenso-sub000/internal/llm"
	"github.com/pemba1s1/Expenso-sub000/internal/mail"
	"github.com/pemba1s1/Expenso-sub000/internal/oauth"
	"github.com/pemba1s1/Expenso-sub000/internal/ratelimit"
	"github.com/pemba1s1/Expenso-sub000/internal/storage"
	"gorm.io/gorm"
)

// Options carries the dependencies handlers are wired with.
type Options struct {
	DB         *gorm.DB
	JWT        config.JWTConfig
	WebBaseURL string
	OAuth      *oauth.GoogleProvider
	LLM        llm.Client
	Store      *storage.LocalStore
	Mailer     mail.Mailer
	Limiter    *ratelimit.Limiter
}

// NewRouter builds the gin engine with all API routes registered.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	RegisterRoutes(r, opts)
	return r
}

// RegisterRoutes registers the API surface on an existing engine.
func RegisterRoutes(r *gin.Engine, opts Options) {
	if r == nil || opts.DB == nil {
		return
	}

	if opts.Store != nil {
		r.Static("/uploads", opts.Store.Dir())
	}

	limited := opts.Limiter.Middleware()
	authed := AuthMiddleware(opts.DB, opts.JWT)

	authHandler := handlers.NewAuthHandler(opts.DB, opts.JWT, opts.OAuth, opts.Mailer, opts.WebBaseURL)
	auth := r.Group("/auth")
	auth.POST("/register", limited, authHandler.Register)
	auth.POST("/login", limited, authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/verify", authHandler.Verify)
	auth.GET("/google", authHandler.GoogleRedirect)
	auth.GET("/google/callback", authHandler.GoogleCallback)
	auth.GET("/me", authed, authHandler.Me)

	groupHandler := handlers.NewGroupHandler(opts.DB)
	group := r.Group("/group", authed)
	group.POST("/create", groupHandler.Create)
	group.GET("/all", groupHandler.All)
	group.GET("/:id", groupHandler.Get)
	group.GET("/:id/users", groupHandler.Users)
	group.PATCH("/:id", GroupAdminMiddleware(opts.DB), groupHandler.Update)

	invitationHandler := handlers.NewInvitationHandler(opts.DB, opts.Mailer, opts.WebBaseURL)
	invitation := r.Group("/invitation")
	invitation.POST("", authed, invitationHandler.Create)
	// Acceptance is unauthenticated: the invitee may not have an account yet.
	invitation.POST("/accept", invitationHandler.Accept)

	expenseHandler := handlers.NewExpenseHandler(opts.DB, opts.LLM, opts.Store)
	expense := r.Group("/expense", authed)
	expense.POST("", expenseHandler.Create)
	expense.POST("/receipt", expenseHandler.CreateFromReceipt)
	expense.POST("/approve", expenseHandler.Approve)
	expense.GET("/user", expenseHandler.ListUser)
	expense.GET("/summary", expenseHandler.Summary)
	expense.GET("/monthly-insight", expenseHandler.MonthlyInsight)
	expense.GET("/:id", expenseHandler.Get)

	categoryHandler := handlers.NewCategoryHandler(opts.DB)
	r.GET("/category", authed, categoryHandler.List)

	limitHandler := handlers.NewLimitHandler(opts.DB)
	limit := r.Group("/userCategoryLimit", authed)
	limit.POST("", limitHandler.Create)
	limit.PATCH("", limitHandler.Update)
	limit.GET("", limitHandler.List)

	subscriptionHandler := handlers.NewSubscriptionHandler(opts.DB)
	r.POST("/subscribe", authed, subscriptionHandler.Subscribe)
}
