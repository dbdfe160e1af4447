// Package server exposes the library operations over HTTP/JSON.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/library"
	log2 "library-backend/log"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	lm     *library.LibraryManager
	router *gin.Engine
}

// New builds the router. The gin mode is left to the caller.
func New(lm *library.LibraryManager) *Server {
	s := &Server{lm: lm, router: gin.New()}
	s.router.Use(requestLogger(), gin.Recovery())
	s.routes()
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := s.router
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"response": "Api Online!"})
	})
	r.GET("/healthz", s.health)
	r.POST("/login", s.login)

	// /empresas is kept for existing clients.
	for _, prefix := range []string{"/companies", "/empresas"} {
		companies := r.Group(prefix)
		companies.GET("", s.listCompanies)
		companies.POST("", s.createCompany)
		companies.GET("/cnpj/:cnpj", s.getCompanyByTaxID)
		companies.GET("/:id", s.getCompany)
		companies.PUT("/:id", s.updateCompany)
		companies.DELETE("/:id", s.deleteCompany)
	}

	users := r.Group("/users")
	users.GET("", s.listUsers)
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)
	users.GET("/:id/borrows", s.listUserBorrows)
	users.GET("/:id/loans", s.listUserLoans)

	books := r.Group("/books")
	books.GET("", s.listBooks)
	books.POST("", s.createBook)
	books.GET("/:id", s.getBook)
	books.PUT("/:id", s.updateBook)
	books.DELETE("/:id", s.deleteBook)
	books.GET("/:id/copies", s.listCopies)
	books.POST("/:id/copies", s.addCopy)

	copies := r.Group("/copies")
	copies.GET("/:id", s.getCopy)
	copies.PUT("/:id", s.updateCopy)
	copies.DELETE("/:id", s.deleteCopy)

	borrows := r.Group("/borrows")
	borrows.GET("", s.listBorrows)
	borrows.POST("", s.createBorrow)
	borrows.GET("/:id", s.getBorrow)
	borrows.DELETE("/:id", s.deleteBorrow)
	borrows.POST("/:id/return", s.returnBorrow)
}

func (s *Server) health(c *gin.Context) {
	if err := s.lm.Database().Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log2.GetLogger(ctx).WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log2.GetLogger(ctx).Info("http server stopped")
	return nil
}
