package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// BooksController manages the catalog. Lending state on a book is read-only
// here; it changes only through borrows and returns.
type BooksController struct {
	store BookStore
	audit AuditLogger
}

func NewBooksController(store BookStore, auditLog AuditLogger) *BooksController {
	return &BooksController{
		store: store,
		audit: auditOrNop(auditLog),
	}
}

// BookRequest is the body of book create and update requests.
type BookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Year     int    `json:"year"`
	Genre    string `json:"genre"`
	Language string `json:"language"`
	ImageRef string `json:"imageRef"`
}

func (r BookRequest) toBook() (*entities.Book, string) {
	title := strings.TrimSpace(r.Title)
	author := strings.TrimSpace(r.Author)
	if title == "" || author == "" {
		return nil, "title and author are required"
	}
	if r.Year < 0 {
		return nil, "year must not be negative"
	}
	return &entities.Book{
		Title:    title,
		Author:   author,
		Year:     r.Year,
		Genre:    strings.TrimSpace(r.Genre),
		Language: strings.TrimSpace(r.Language),
		ImageRef: strings.TrimSpace(r.ImageRef),
	}, ""
}

// GetAllBooks handles GET /api/books?query=&available=
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	available, ok := parseOptionalBool(c, "available")
	if !ok {
		return
	}

	list, err := controller.store.ListBooks(c.Request.Context(), books.ListFilter{
		Query:     c.Query("query"),
		Available: available,
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBook handles GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, problem := req.toBook()
	if problem != "" {
		respondBadRequest(c, problem)
		return
	}

	err := controller.store.CreateBook(c.Request.Context(), book)
	controller.audit.LogCatalog(requestOrigin(c, ""), "create", book.ID, book.Title, err)
	if err != nil {
		respondStoreError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook handles PUT /api/books/:id
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, problem := req.toBook()
	if problem != "" {
		respondBadRequest(c, problem)
		return
	}
	book.ID = id

	err := controller.store.UpdateBook(c.Request.Context(), book)
	controller.audit.LogCatalog(requestOrigin(c, ""), "update", id, book.Title, err)
	if err != nil {
		respondStoreError(c, err, "update book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
// A borrowed book cannot be deleted.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.store.DeleteBook(c.Request.Context(), id)
	controller.audit.LogCatalog(requestOrigin(c, ""), "delete", id, "", err)
	if err != nil {
		respondStoreError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
