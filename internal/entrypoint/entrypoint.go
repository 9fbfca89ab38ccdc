package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/borrowers"
	"github.com/mrlokans/library/internal/database/complaints"
	"github.com/mrlokans/library/internal/database/loans"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/lending"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 cannot be caught, so only INT and TERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the background workers go away, so an
	// in-flight borrow still gets its audit event written.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path, database.Options{LogLevel: cfg.Database.GormLogLevel()})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	loanStore := loans.NewStore(db.DB)
	lendingService := lending.NewService(loanStore)
	bookRepo := books.NewRepository(db.DB)
	borrowerRepo := borrowers.NewRepository(db.DB)
	complaintRepo := complaints.NewRepository(db.DB)
	auditService := auditsvc.NewService(auditrepo.NewRepository(db.DB))

	var archive tasks.ReportArchiver
	if cfg.Audit.ReportDir != "" {
		archive = auditsvc.NewArchive(cfg.Audit.ReportDir)
		log.Printf("Reconciliation reports will be archived to %s", cfg.Audit.ReportDir)
	}

	limiter := auth.NewLoginLimiter(auth.LoginLimitConfig{
		MaxFailures: cfg.Auth.MaxLoginAttempts,
		Window:      cfg.Auth.RateLimitWindow,
		Lockout:     cfg.Auth.LockoutDuration,
	})

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:            cfg.Tasks.Workers,
			ReleaseAfter:       cfg.Tasks.ReleaseAfter,
			CleanupInterval:    cfg.Tasks.CleanupInterval,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(auditService, cfg.Audit.RetentionDays),
			tasks.NewReconcileLoansQueue(loanStore, auditService, archive),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// The scheduler only enqueues, so it needs the task queue.
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Maintenance.Enabled && taskClient != nil {
		maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.MaintenanceConfig{
			AuditCleanupSchedule: cfg.Maintenance.AuditCleanupSchedule,
			ReconcileSchedule:    cfg.Maintenance.ReconcileSchedule,
			AuditRetentionDays:   cfg.Audit.RetentionDays,
		})
		if err := maintenance.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else if cfg.Maintenance.Enabled {
		log.Printf("WARNING: maintenance is enabled but the task queue is not; scheduled jobs will not run")
	}

	routerCfg := http_controllers.RouterConfig{
		Lending:           lendingService,
		Books:             bookRepo,
		Borrowers:         borrowerRepo,
		Complaints:        complaintRepo,
		Database:          db,
		Audit:             auditService,
		AuditReader:       auditService,
		DefaultLoanPeriod: cfg.Lending.DefaultLoanPeriod(),
		PasswordPolicy: auth.PasswordPolicy{
			MinLength: cfg.Auth.MinPasswordLength,
			Cost:      cfg.Auth.BcryptCost,
		},
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		HSTSMaxAge:     cfg.HTTP.HSTSMaxAge,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}
