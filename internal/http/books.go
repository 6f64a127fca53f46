package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/elibrary/internal/audit"
	"github.com/mrlokans/elibrary/internal/auth"
	"github.com/mrlokans/elibrary/internal/catalog"
	"github.com/mrlokans/elibrary/internal/database/books"
	"github.com/mrlokans/elibrary/internal/entities"
	"github.com/mrlokans/elibrary/internal/validation"
)

// BooksController serves the catalog pages and the books API.
type BooksController struct {
	catalog BookCatalog
	audit   AuditLogger
}

// NewBooksController creates a BooksController. auditLogger may be nil.
func NewBooksController(bookCatalog BookCatalog, auditLogger AuditLogger) *BooksController {
	return &BooksController{
		catalog: bookCatalog,
		audit:   auditLogger,
	}
}

// BooksPage handles GET /books?category=
func (bc *BooksController) BooksPage(c *gin.Context) {
	category := selectedCategory(c)

	list, err := bc.catalog.ListBooks(c.Request.Context(), category)
	if err != nil {
		logInternalError(err, "list books")
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}
	categories, err := bc.catalog.Categories(c.Request.Context())
	if err != nil {
		logInternalError(err, "list categories")
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}

	c.HTML(http.StatusOK, "books", pageData(c, gin.H{
		"Books":      catalog.NewDetails(list),
		"TotalBooks": len(list),
		"Categories": categories,
		"Category":   category,
	}))
}

// BookPage handles GET /books/:id. Unknown books send the browser back to
// the list.
func (bc *BooksController) BookPage(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusSeeOther, withQuery("/books", "error", "Book not found."))
		return
	}

	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		redirectWithError(c, err, "/books", "get book")
		return
	}

	c.HTML(http.StatusOK, "book", pageData(c, gin.H{
		"Book": catalog.NewDetail(*book),
	}))
}

// NewBookPage handles GET /books/new.
func (bc *BooksController) NewBookPage(c *gin.Context) {
	if _, err := requireAdmin(c); err != nil {
		redirectWithError(c, err, "/books", "new book page")
		return
	}
	bc.renderNewBookForm(c, http.StatusOK, catalog.NewBookInput{}, nil)
}

// CreateBook handles the add-book form post.
func (bc *BooksController) CreateBook(c *gin.Context) {
	if _, err := requireAdmin(c); err != nil {
		redirectWithError(c, err, "/books", "create book")
		return
	}

	in, err := bindBookForm(c)
	if err != nil {
		bc.renderNewBookForm(c, http.StatusBadRequest, in, []string{err.Error()})
		return
	}

	book, err := bc.catalog.AddBook(c.Request.Context(), in)
	bc.logCatalog(c, book, in.Title, err)
	if err != nil {
		if de, ok := classifyError(err); ok && de.status == http.StatusBadRequest {
			bc.renderNewBookForm(c, http.StatusBadRequest, in, validation.Messages(err))
			return
		}
		redirectWithError(c, err, "/books/new", "create book")
		return
	}

	redirectWithMessage(c, fmt.Sprintf("/books/%d", book.ID), fmt.Sprintf("Added %q to the catalog.", book.Title))
}

func (bc *BooksController) renderNewBookForm(c *gin.Context, status int, in catalog.NewBookInput, errs []string) {
	authors := make([]catalog.AuthorInput, catalog.MaxAuthors)
	copy(authors, in.Authors)

	c.HTML(status, "new-book", pageData(c, gin.H{
		"Input":      in,
		"Authors":    authors,
		"Genres":     catalog.Genres,
		"Categories": catalog.Categories,
		"Errors":     errs,
	}))
}

// bindBookForm reads the add-book form. Author rows are posted as
// authors[i].name and authors[i].illustrator; empty rows are dropped later.
func bindBookForm(c *gin.Context) (catalog.NewBookInput, error) {
	var in catalog.NewBookInput
	in.Title = c.PostForm("title")
	in.Category = c.PostForm("category")
	in.CoverURL = c.PostForm("url")
	in.Description = c.PostForm("description")
	in.Genres = c.PostFormArray("genres")

	for i := 0; i < catalog.MaxAuthors; i++ {
		prefix := "authors[" + strconv.Itoa(i) + "]"
		name := c.PostForm(prefix + ".name")
		illustrator := c.PostForm(prefix+".illustrator") != ""
		if name == "" && !illustrator {
			continue
		}
		in.Authors = append(in.Authors, catalog.AuthorInput{Name: name, Illustrator: illustrator})
	}

	var err error
	if in.Pages, err = formInt(c, "pages"); err != nil {
		return in, err
	}
	if in.Copies, err = formInt(c, "copies"); err != nil {
		return in, err
	}
	return in, nil
}

// formInt parses an optional whole-number field; blank is zero and left to
// validation.
func formInt(c *gin.Context, field string) (int, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", field)
	}
	return n, nil
}

// APIListBooks handles GET /api/books?category=
func (bc *BooksController) APIListBooks(c *gin.Context) {
	category := selectedCategory(c)

	list, err := bc.catalog.ListBooks(c.Request.Context(), category)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books":    catalog.NewDetails(list),
		"count":    len(list),
		"category": category,
	})
}

// APIGetBook handles GET /api/books/:id
func (bc *BooksController) APIGetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondAPIError(c, err, "get book")
		return
	}

	c.JSON(http.StatusOK, catalog.NewDetail(*book))
}

// APICreateBook handles POST /api/books
func (bc *BooksController) APICreateBook(c *gin.Context) {
	if _, err := requireAdmin(c); err != nil {
		respondAPIError(c, err, "create book")
		return
	}

	var in catalog.NewBookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.catalog.AddBook(c.Request.Context(), in)
	bc.logCatalog(c, book, in.Title, err)
	if err != nil {
		respondAPIError(c, err, "create book")
		return
	}

	c.JSON(http.StatusCreated, catalog.NewDetail(*book))
}

func (bc *BooksController) logCatalog(c *gin.Context, book *entities.Book, title string, err error) {
	if bc.audit == nil {
		return
	}
	var id uint
	if book != nil {
		id = book.ID
	}
	origin := audit.RequestOrigin(c, auth.CurrentIdentity(c).UserID())
	bc.audit.LogCatalog(origin, "book_create", id, title, err)
}

func selectedCategory(c *gin.Context) string {
	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		return books.AllCategories
	}
	return category
}

