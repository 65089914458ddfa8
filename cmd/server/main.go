package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fabtrack/api/rest/routes"
	"fabtrack/config"
	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/template"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	// Initialize document store
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	log.Printf("Store initialized (driver=%s)", cfg.StoreDriver)

	// Load the step checklist
	checklist, err := template.Load(cfg.StepsFile)
	if err != nil {
		log.Fatalf("Failed to load step checklist: %v", err)
	}

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, store, checklist, identity.HeaderProvider{})

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return docstore.NewPostgres(cfg.DatabaseURL)
	case "sqlite":
		return docstore.NewSQLite(cfg.SQLitePath)
	case "memory":
		return docstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
