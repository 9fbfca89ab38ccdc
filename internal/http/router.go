package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", ActorHeader, RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", RequestIDHeader, "Retry-After"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	// Lending
	if cfg.Lending != nil {
		loans := NewLoansController(cfg.Lending, cfg.Audit, cfg.DefaultLoanPeriod)
		api.POST("/borrows", loans.Borrow)
		api.GET("/borrows", loans.ListBorrows)
		api.GET("/borrows/:id", loans.GetBorrow)
		api.POST("/borrows/:id/status", loans.SetStatus)
		api.POST("/returns", loans.Return)
		api.GET("/reports/summary", loans.Summary)
		api.GET("/reports/overdue", loans.Overdue)
	}

	// Catalog
	if cfg.Books != nil {
		books := NewBooksController(cfg.Books, cfg.Audit)
		api.GET("/books", books.GetAllBooks)
		api.POST("/books", books.CreateBook)
		api.GET("/books/:id", books.GetBook)
		api.PUT("/books/:id", books.UpdateBook)
		api.DELETE("/books/:id", books.DeleteBook)
	}

	// Borrower directory
	if cfg.Borrowers != nil {
		people := NewBorrowersController(cfg.Borrowers, cfg.PasswordPolicy, cfg.LoginLimiter, cfg.Audit)

		login := api.Group("")
		if cfg.LoginLimiter != nil {
			login.Use(cfg.LoginLimiter.Middleware())
		}
		login.POST("/students/login", people.StudentLogin)
		login.POST("/teachers/login", people.TeacherLogin)

		api.GET("/students", people.ListStudents)
		api.POST("/students", people.CreateStudent)
		api.GET("/students/:id", people.GetStudent)
		api.PUT("/students/:id", people.UpdateStudent)
		api.DELETE("/students/:id", people.DeleteStudent)

		api.GET("/teachers", people.ListTeachers)
		api.POST("/teachers", people.CreateTeacher)
		api.GET("/teachers/:id", people.GetTeacher)
		api.PUT("/teachers/:id", people.UpdateTeacher)
		api.DELETE("/teachers/:id", people.DeleteTeacher)
		api.GET("/teachers/:id/students", people.ListTeacherStudents)
	}

	// Audit log
	if cfg.Complaints != nil {
		inbox := NewComplaintsController(cfg.Complaints, cfg.Audit)
		api.GET("/complaints", inbox.ListComplaints)
		api.POST("/complaints", inbox.CreateComplaint)
		api.GET("/complaints/:id", inbox.GetComplaint)
		api.PUT("/complaints/:id", inbox.UpdateComplaint)
		api.DELETE("/complaints/:id", inbox.DeleteComplaint)
	}

	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		api.GET("/audit", auditController.GetAuditEvents)
		api.GET("/audit/types", auditController.EventTypes)
	}

	// Task queue management (if task client is available)
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
