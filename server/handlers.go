package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/library"
)

// ----- Companies -----

func (s *Server) listCompanies(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	companies, err := s.lm.ListCompanies(c.Request.Context(), p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (s *Server) getCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	company, err := s.lm.GetCompany(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) getCompanyByTaxID(c *gin.Context) {
	company, err := s.lm.GetCompanyByTaxID(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) createCompany(c *gin.Context) {
	var in library.CompanyInput
	if !bindJSON(c, &in) {
		return
	}
	company, err := s.lm.CreateCompany(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (s *Server) updateCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var u library.CompanyUpdate
	if !bindJSON(c, &u) {
		return
	}
	company, err := s.lm.UpdateCompany(c.Request.Context(), id, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) deleteCompany(c *gin.Context) {
	s.deleteByID(c, s.lm.DeleteCompany)
}

// ----- Users -----

func (s *Server) listUsers(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	users, err := s.lm.ListUsers(c.Request.Context(), p, library.UserKind(c.Query("user_type")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := s.lm.GetUser(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) createUser(c *gin.Context) {
	var in library.NewUser
	if !bindJSON(c, &in) {
		return
	}
	user, err := s.lm.CreateUser(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var u library.UserUpdate
	if !bindJSON(c, &u) {
		return
	}
	user, err := s.lm.UpdateUser(c.Request.Context(), id, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	s.deleteByID(c, s.lm.DeleteUser)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var in credentials
	if !bindJSON(c, &in) {
		return
	}
	user, err := s.lm.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listUserBorrows(c *gin.Context) {
	s.listUserBorrowsBy(c, s.lm.ListBorrowsByBorrower)
}

func (s *Server) listUserLoans(c *gin.Context) {
	s.listUserBorrowsBy(c, s.lm.ListBorrowsByLender)
}

func (s *Server) listUserBorrowsBy(c *gin.Context, list func(ctx context.Context, id int64, openOnly bool, p library.Page) ([]*library.Borrow, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	open, ok := openOnly(c)
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	borrows, err := list(c.Request.Context(), id, open, p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

// ----- Books and copies -----

func (s *Server) listBooks(c *gin.Context) {
	p, ok := page(c)
	if !ok {
		return
	}
	books, err := s.lm.SearchBooks(c.Request.Context(), c.Query("q"), p)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (s *Server) getBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	book, err := s.lm.GetBook(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) createBook(c *gin.Context) {
	var in library.BookInput
	if !bindJSON(c, &in) {
		return
	}
	book, err := s.lm.CreateBook(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (s *Server) updateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var u library.BookUpdate
	if !bindJSON(c, &u) {
		return
	}
	book, err := s.lm.UpdateBook(c.Request.Context(), id, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (s *Server) deleteBook(c *gin.Context) {
	s.deleteByID(c, s.lm.DeleteBook)
}

func (s *Server) listCopies(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	copies, err := s.lm.ListCopies(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, copies)
}

func (s *Server) addCopy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in library.CopyInput
	// The body is optional: a POST without one adds a copy with no code.
	if c.Request.ContentLength != 0 && !bindJSON(c, &in) {
		return
	}
	bookCopy, err := s.lm.AddCopy(c.Request.Context(), id, in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookCopy)
}

func (s *Server) getCopy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	bookCopy, err := s.lm.GetCopy(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookCopy)
}

func (s *Server) updateCopy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var u library.CopyUpdate
	if !bindJSON(c, &u) {
		return
	}
	bookCopy, err := s.lm.UpdateCopy(c.Request.Context(), id, u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookCopy)
}

func (s *Server) deleteCopy(c *gin.Context) {
	s.deleteByID(c, s.lm.DeleteCopy)
}

// ----- Borrows -----

func (s *Server) listBorrows(c *gin.Context) {
	open, ok := openOnly(c)
	if !ok {
		return
	}
	p, ok := page(c)
	if !ok {
		return
	}
	borrows, err := s.lm.ListBorrows(c.Request.Context(), p, open)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

func (s *Server) getBorrow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	borrow, err := s.lm.GetBorrow(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrow)
}

func (s *Server) createBorrow(c *gin.Context) {
	var req library.BorrowRequest
	if !bindJSON(c, &req) {
		return
	}
	borrow, err := s.lm.CreateBorrow(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, borrow)
}

func (s *Server) returnBorrow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	borrow, err := s.lm.ReturnBorrow(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrow)
}

func (s *Server) deleteBorrow(c *gin.Context) {
	s.deleteByID(c, s.lm.DeleteBorrow)
}

func (s *Server) deleteByID(c *gin.Context, del func(ctx context.Context, id int64) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
