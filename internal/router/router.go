package router

import (
	"net/http"

	"yamdb/internal/auth"
	"yamdb/internal/config"
	"yamdb/internal/handlers"
	"yamdb/internal/logging"
	"yamdb/internal/metrics"
	"yamdb/internal/middleware"
	"yamdb/internal/store"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// Services holds what the route table is built from.
type Services struct {
	Store  store.Store
	Tokens *auth.TokenManager
	Flow   *auth.Flow
	Limits config.LimitsConfig
}

// New returns an engine with the middleware chain and every route installed.
// Trailing slashes are optional: each route answers with and without one.
func New(s Services) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.HandleMethodNotAllowed = true
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		logging.RequestLogger(),
		metrics.Middleware(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "method \"" + c.Request.Method + "\" not allowed"})
	})

	RegisterRoutes(r, s)
	return r
}

// route registers h on path and on path with a trailing slash.
func route(g *gin.RouterGroup, method, path string, h ...gin.HandlerFunc) {
	g.Handle(method, path, h...)
	g.Handle(method, path+"/", h...)
}

func RegisterRoutes(r *gin.Engine, s Services) {
	deps := handlers.Deps{Store: s.Store, Limits: s.Limits}

	authHandler := handlers.NewAuthHandler(s.Flow)
	userHandler := handlers.NewUserHandler(deps)
	categoryHandler := handlers.NewCategoryHandler(deps)
	genreHandler := handlers.NewGenreHandler(deps)
	titleHandler := handlers.NewTitleHandler(deps)
	reviewHandler := handlers.NewReviewHandler(deps)
	commentHandler := handlers.NewCommentHandler(deps)
	healthHandler := handlers.NewHealthHandler(s.Store)

	// Operational
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.LoadCaller(s.Tokens, s.Store))

	// Sign-up and token exchange
	authGroup := api.Group("/auth")
	{
		route(authGroup, http.MethodPost, "/signup", authHandler.Signup)
		route(authGroup, http.MethodPost, "/token", authHandler.Token)
	}

	// Self service; registered before the admin routes so "me" is never
	// taken as a username.
	me := api.Group("/users/me", middleware.AuthRequired())
	{
		route(me, http.MethodGet, "", userHandler.Me)
		route(me, http.MethodPatch, "", userHandler.UpdateMe)
	}

	users := api.Group("/users", middleware.Require(middleware.AdminOnly))
	{
		route(users, http.MethodGet, "", userHandler.List)
		route(users, http.MethodPost, "", userHandler.Create)
		route(users, http.MethodGet, "/:username", userHandler.Get)
		route(users, http.MethodPatch, "/:username", userHandler.Update)
		route(users, http.MethodDelete, "/:username", userHandler.Delete)
	}

	categories := api.Group("/categories", middleware.Require(middleware.ReadOnlyOrAdmin))
	{
		route(categories, http.MethodGet, "", categoryHandler.List)
		route(categories, http.MethodPost, "", categoryHandler.Create)
		route(categories, http.MethodDelete, "/:slug", categoryHandler.Delete)
	}

	genres := api.Group("/genres", middleware.Require(middleware.ReadOnlyOrAdmin))
	{
		route(genres, http.MethodGet, "", genreHandler.List)
		route(genres, http.MethodPost, "", genreHandler.Create)
		route(genres, http.MethodDelete, "/:slug", genreHandler.Delete)
	}

	titles := api.Group("/titles")
	{
		admin := titles.Group("", middleware.Require(middleware.ReadOnlyOrAdmin))
		route(admin, http.MethodGet, "", titleHandler.List)
		route(admin, http.MethodPost, "", titleHandler.Create)
		route(admin, http.MethodGet, "/:title_id", titleHandler.Get)
		route(admin, http.MethodPatch, "/:title_id", titleHandler.Update)
		route(admin, http.MethodDelete, "/:title_id", titleHandler.Delete)

		// Ownership is checked per object inside the handlers.
		reviews := titles.Group("/:title_id/reviews", middleware.Require(middleware.AuthenticatedToWrite))
		route(reviews, http.MethodGet, "", reviewHandler.List)
		route(reviews, http.MethodPost, "", reviewHandler.Create)
		route(reviews, http.MethodGet, "/:review_id", reviewHandler.Get)
		route(reviews, http.MethodPatch, "/:review_id", reviewHandler.Update)
		route(reviews, http.MethodDelete, "/:review_id", reviewHandler.Delete)

		comments := reviews.Group("/:review_id/comments")
		route(comments, http.MethodGet, "", commentHandler.List)
		route(comments, http.MethodPost, "", commentHandler.Create)
		route(comments, http.MethodGet, "/:comment_id", commentHandler.Get)
		route(comments, http.MethodPatch, "/:comment_id", commentHandler.Update)
		route(comments, http.MethodDelete, "/:comment_id", commentHandler.Delete)
	}
}
