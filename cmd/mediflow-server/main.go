package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mediflow/mediflow/internal/config"
	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/inspector"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/patient"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/timeline"
	"github.com/mediflow/mediflow/internal/domain/workflow"
	"github.com/mediflow/mediflow/internal/platform/blobstore"
	"github.com/mediflow/mediflow/internal/platform/db"
	"github.com/mediflow/mediflow/internal/platform/middleware"
)

// directoryIdentity adapts the patient directory to the workflow's identity
// seam, avoiding a circular import between the patient and workflow packages.
type directoryIdentity struct {
	dir patient.Directory
}

func (a directoryIdentity) Identity(ctx context.Context, patientID uuid.UUID) (workflow.Identity, error) {
	p, err := a.dir.Get(ctx, patientID)
	if err != nil {
		return workflow.Identity{}, err
	}
	return workflow.Identity{Name: p.Name, Phone: p.Phone}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "mediflow-server",
		Short: "Clinic document workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UseDatabase() {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.UseDatabase() {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Repositories: PostgreSQL when DATABASE_URL is set, in-memory otherwise.
	var (
		rxRepo   prescription.Repository
		labRepo  labrequest.Repository
		fileRepo document.Repository
		pool     *pgxpool.Pool
	)
	if cfg.UseDatabase() {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")

		rxRepo = prescription.NewRepoPG(pool)
		labRepo = labrequest.NewRepoPG(pool)
		fileRepo = document.NewRepoPG(pool)
	} else {
		logger.Info().Msg("running with in-memory repositories")
		rxRepo = prescription.NewMemoryRepo()
		labRepo = labrequest.NewMemoryRepo()
		fileRepo = document.NewMemoryRepo()
	}

	patients := patient.NewMemoryDirectory()
	visits := consultation.NewMemorySource()
	blobs := blobstore.NewMemoryStore(cfg.MaxImportMB << 20)
	defer blobs.Close()

	// Services
	rxSvc := prescription.NewService(rxRepo, logger)
	labSvc := labrequest.NewService(labRepo, logger)
	docSvc := document.NewService(fileRepo, blobs, logger)
	quickNotes := consultation.NewQuickNotes(visits, time.Duration(cfg.QuickNoteIdleMS)*time.Millisecond, logger)
	defer quickNotes.FlushAll()

	wfSvc := workflow.NewService(workflow.Sinks{
		Prescriptions: rxSvc,
		LabRequests:   labSvc,
		Documents:     docSvc,
	}, directoryIdentity{dir: patients}, logger)

	tlSvc := timeline.NewService(visits, rxRepo, labRepo, fileRepo, logger)
	inspSvc := inspector.NewService(tlSvc, wfSvc, rxRepo, labRepo, fileRepo, logger)

	if cfg.IsDev() {
		seedDevData(ctx, logger, patients, visits, rxRepo)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")

	patient.NewHandler(patients).RegisterRoutes(apiV1)
	consultation.NewHandler(visits, quickNotes).RegisterRoutes(apiV1)
	workflow.NewHandler(wfSvc).RegisterRoutes(apiV1)
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1)
	labrequest.NewHandler(labSvc).RegisterRoutes(apiV1)
	document.NewHandler(docSvc).RegisterRoutes(apiV1)
	timeline.NewHandler(tlSvc).RegisterRoutes(apiV1)
	inspector.NewHandler(inspSvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": "0.1.0",
			"blobs":   blobs.Len(),
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// seedDevData loads a small demo panel so the timeline and inspector have
// something to show on a fresh start. The second prescription predates the
// structured workflow and carries medication labels only.
func seedDevData(ctx context.Context, logger zerolog.Logger, patients patient.Directory, visits consultation.Source, rx prescription.Repository) {
	marie := &patient.Patient{Name: "Marie Dupont", Phone: "+33 6 12 34 56 78", BirthDate: "14/03/1982"}
	jean := &patient.Patient{Name: "Jean Martin", Phone: "+33 6 98 76 54 32", BirthDate: "02/11/1957"}
	for _, p := range []*patient.Patient{marie, jean} {
		if err := patients.Put(ctx, p); err != nil {
			logger.Error().Err(err).Msg("seed patient failed")
			return
		}
	}

	visits.Add(ctx, &consultation.Consultation{
		PatientID: marie.ID, Date: "10/06/2026", Motif: "Annual checkup",
		Notes: "Blood pressure stable. Renewed treatment.",
	})
	visits.Add(ctx, &consultation.Consultation{
		PatientID: jean.ID, Date: "22/05/2026", Motif: "Knee pain",
		Notes: "Referred for imaging.",
	})

	// legacy record: labels without structured lines, and a code below the
	// ledger's minting range so no new lineage can collide with it
	rx.Append(ctx, &prescription.Record{
		PatientID:   jean.ID,
		Code:        "ORD-091",
		Version:     1,
		Status:      prescription.StatusActive,
		Medications: []string{"Paracetamol 1g", "Ibuprofene 400mg"},
		To:          workflow.Recipients{Patient: true},
		SentAt:      "22/05/2026 15:40",
	})

	logger.Info().Int("patients", 2).Msg("dev data seeded")
}
