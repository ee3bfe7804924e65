// main is the entry point of the students roster service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Create the roster and, with autoload, read the roster file
//  4. Connect the configured backup targets
//  5. Register all HTTP routes
//  6. Start the HTTP server in a separate goroutine
//  7. Block until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down, autosave, close the backup targets
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-roster --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-roster
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/students-roster/internal/backup"
	"github.com/aanand-mishra/students-roster/internal/config"
	rosterapi "github.com/aanand-mishra/students-roster/internal/http/handlers/roster"
	"github.com/aanand-mishra/students-roster/internal/http/handlers/student"
	"github.com/aanand-mishra/students-roster/internal/http/middleware"
	"github.com/aanand-mishra/students-roster/internal/roster"
	"github.com/aanand-mishra/students-roster/internal/storage/objectstore"
	"github.com/aanand-mishra/students-roster/internal/storage/redis"
	"github.com/aanand-mishra/students-roster/internal/storage/sqlite"
)

const version = "1.0.0"

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Handlers log through the package-level slog functions, so the
	// configured logger also becomes the default.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-roster",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 3. Roster ─────────────────────────────────────────────────────────
	st := roster.New()
	if cfg.AutoLoad {
		if err := autoload(st, cfg.RosterPath); err != nil {
			log.Error("failed to load roster", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("roster loaded",
			slog.String("path", cfg.RosterPath),
			slog.Int("students", st.Len()))
	}

	// ── 4. Backup Targets ─────────────────────────────────────────────────
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 10*time.Second)
	backups, err := setupBackups(setupCtx, cfg.Backup)
	cancelSetup()
	if err != nil {
		log.Error("failed to initialise backup targets", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("backup targets initialised", slog.Any("targets", backups.Names()))

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	router := newRouter(st, backups, rosterapi.Files{
		DataDir:    cfg.DataDir,
		RosterPath: cfg.RosterPath,
	})

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: middleware.RequestID(log, router),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	// The server no longer accepts requests, so the roster is final.
	if cfg.AutoSave {
		if err := st.SaveTo(cfg.RosterPath); err != nil {
			log.Error("failed to save roster", slog.String("error", err.Error()))
			exitCode = 1
		} else {
			log.Info("roster saved",
				slog.String("path", cfg.RosterPath),
				slog.Int("students", st.Len()))
		}
	}

	if err := backups.Close(); err != nil {
		log.Error("failed to close backup targets", slog.String("error", err.Error()))
		exitCode = 1
	}

	log.Info("server stopped")
	os.Exit(exitCode)
}

// newRouter registers every route. Handlers are factories: they receive
// their dependencies once and return the per-request closure.
//
// Route table:
//
//	POST   /api/students                          → add (or replace) a student
//	GET    /api/students                          → list all students by id
//	GET    /api/students/filter                   → filter by min_gpa and name
//	GET    /api/students/sorted                   → sort by gpa, name or id
//	GET    /api/students/{id}                     → get one student
//	PUT    /api/students/{id}                     → replace a student
//	DELETE /api/students/{id}                     → delete a student
//	POST   /api/roster/save                       → write a roster file
//	POST   /api/roster/load                       → read a roster file
//	GET    /api/roster/backups                    → list backup targets
//	POST   /api/roster/backups                    → back up to every target
//	POST   /api/roster/backups/{target}           → back up to one target
//	POST   /api/roster/backups/{target}/restore   → restore from one target
func newRouter(st *roster.Store, backups *backup.Manager, files rosterapi.Files) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(st))
	router.HandleFunc("GET /api/students", student.GetList(st))
	router.HandleFunc("GET /api/students/filter", student.Filter(st))
	router.HandleFunc("GET /api/students/sorted", student.Sorted(st))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(st))
	router.HandleFunc("PUT /api/students/{id}", student.Update(st))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(st))

	router.HandleFunc("POST /api/roster/save", rosterapi.Save(st, files))
	router.HandleFunc("POST /api/roster/load", rosterapi.Load(st, files))
	router.HandleFunc("GET /api/roster/backups", rosterapi.ListBackups(backups))
	router.HandleFunc("POST /api/roster/backups", rosterapi.BackupAll(st, backups))
	router.HandleFunc("POST /api/roster/backups/{target}", rosterapi.Backup(st, backups))
	router.HandleFunc("POST /api/roster/backups/{target}/restore", rosterapi.Restore(st, backups))

	return router
}

// autoload reads the roster file if it exists. A missing file is a fresh
// roster, not an error.
func autoload(st *roster.Store, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return st.LoadFrom(path)
}

// setupBackups connects every target whose identifying setting is present.
// On failure the targets connected so far are closed.
func setupBackups(ctx context.Context, cfg config.Backup) (_ *backup.Manager, err error) {
	m := backup.NewManager()
	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	if cfg.SQLitePath != "" {
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		m.Add("sqlite", db)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		m.Add("redis", rdb)
	}

	if cfg.ObjectStore.Endpoint != "" {
		obj, err := objectstore.New(ctx, objectstore.Config{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Bucket:    cfg.ObjectStore.Bucket,
			Region:    cfg.ObjectStore.Region,
			Object:    cfg.ObjectStore.Object,
			Secure:    cfg.ObjectStore.Secure,
		})
		if err != nil {
			return nil, fmt.Errorf("object store: %w", err)
		}
		m.Add("s3", obj)
	}

	return m, nil
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
