package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokebinder/pokebinder/internal/api"
	"github.com/pokebinder/pokebinder/internal/batch"
	"github.com/pokebinder/pokebinder/internal/catalog"
	"github.com/pokebinder/pokebinder/internal/config"
	"github.com/pokebinder/pokebinder/internal/manager"
	"github.com/pokebinder/pokebinder/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	col := store.LoadCollection()
	log.Printf("Loaded collection: %d entries, $%.2f total value", col.TotalCount, col.TotalValue)

	client, err := catalog.NewClient(catalog.Options{
		BaseURL:  cfg.API.BaseURL,
		APIKey:   cfg.API.Key,
		CacheTTL: cfg.CacheTTL(),
		Timeout:  cfg.APITimeout(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize catalog client: %v", err)
	}

	mgr := manager.New(store, client, cfg.View.PageSize)
	queue := batch.New[*catalog.SearchResult](cfg.Batch.Size, cfg.BatchDelay())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optionally warm the catalog cache for the configured names.
	if len(cfg.Batch.Precache) > 0 {
		go func() {
			time.Sleep(2 * time.Second)
			log.Printf("Pre-caching %d searches...", len(cfg.Batch.Precache))
			for _, name := range cfg.Batch.Precache {
				name := name
				queue.Enqueue(ctx, func(ctx context.Context) (*catalog.SearchResult, error) {
					return client.SearchByName(ctx, name)
				})
			}
		}()
	}

	router := api.SetupRouter(api.Deps{
		Store:       store,
		Catalog:     client,
		Manager:     mgr,
		Queue:       queue,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
