// Package httpapi is the REST surface of the library: gin routes, request binding
// and the role checks in front of the catalog, user and circulation stores.
package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"libraryhub/internal/auth"
	"libraryhub/internal/circulation"
	"libraryhub/internal/config"
	"libraryhub/internal/feed"
	"libraryhub/pkg/models"
)

type Server struct {
	db       *sql.DB
	issuer   *auth.Issuer
	ledger   *circulation.Ledger
	hub      *feed.Hub
	limiter  *auth.ClientLimiter
	mediaDir string
	log      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, ledger *circulation.Ledger, hub *feed.Hub, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	registerValidation()
	return &Server{
		db:       db,
		issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		ledger:   ledger,
		hub:      hub,
		limiter:  auth.NewClientLimiter(rate.Limit(cfg.SigninRate), cfg.SigninBurst),
		mediaDir: cfg.MediaDir,
		log:      log,
	}
}

func workerOnly(msg string) gin.HandlerFunc { return auth.RequireRole(models.RoleWorker, msg) }
func memberOnly(msg string) gin.HandlerFunc { return auth.RequireRole(models.RoleMember, msg) }

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// AUTH
	r.POST("/member/signup/", s.signup(models.RoleMember))
	r.POST("/admin/signup/", s.signup(models.RoleWorker))
	signin := r.Group("/", s.limiter.Middleware())
	signin.POST("/member/signin/", s.signin(models.RoleMember))
	signin.POST("/admin/signin/", s.signin(models.RoleWorker))
	r.POST("/token/refresh/", s.refresh)

	// FEED
	if s.hub != nil {
		r.GET("/ws/circulation",
			auth.RequireJWTOrQuery(s.issuer.Secret()),
			workerOnly("Only workers can watch circulation."),
			feed.Handler(s.hub))
	}

	// PROTECTED
	authed := r.Group("/", auth.RequireJWT(s.issuer.Secret()))
	authed.GET("/profile/", s.getProfile)
	authed.PUT("/profile/update/", s.updateProfile)

	authed.GET("/authors/", s.listAuthors)
	authed.POST("/authors/create/", workerOnly("Only workers can create authors."), s.createAuthor)
	authed.PUT("/authors/:id/update/", workerOnly("Only workers can update authors."), s.updateAuthor)
	authed.DELETE("/authors/:id/delete/", workerOnly("Only workers can delete authors."), s.deleteAuthor)

	authed.GET("/categories", s.listCategories)
	authed.POST("/category/create/", workerOnly("Only workers can create categories."), s.createCategory)
	authed.PUT("/category/:id/update/", workerOnly("Only workers can update categories."), s.updateCategory)
	authed.DELETE("/category/:id/delete/", workerOnly("Only workers can delete categories."), s.deleteCategory)

	authed.GET("/subcategories", s.listSubCategories)
	authed.POST("/subcategory/create/", workerOnly("Only workers can create subcategories."), s.createSubCategory)
	authed.PUT("/subcategory/:id/update/", workerOnly("Only workers can update subcategories."), s.updateSubCategory)
	authed.DELETE("/subcategory/:id/delete/", workerOnly("Only workers can delete subcategories."), s.deleteSubCategory)

	authed.GET("/books/", s.listBooks)
	authed.GET("/books/:id/", s.bookDetail)
	authed.POST("/book/create/", workerOnly("Only workers can create books."), s.createBook)
	authed.PUT("/book/:id/update/", workerOnly("Only workers can update books."), s.updateBook)
	authed.DELETE("/book/:id/delete/", workerOnly("Only workers can delete books."), s.deleteBook)

	authed.POST("/borrow/", memberOnly("Only members can borrow books."), s.borrow)
	authed.POST("/return/:id/", memberOnly("Only members can return books."), s.returnBook)
	authed.GET("/my-borrows/", memberOnly("Only members can view this."), s.myBorrows)
	authed.GET("/all-borrows/", workerOnly("Only workers can view borrow records."), s.allBorrows)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
