// Command goserver runs the Go engine REST API server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourusername/goengine/internal/storage"
	"github.com/yourusername/goengine/pkg/api"
)

const version = "0.1.0"

func main() {
	// Command line flags
	host := flag.String("host", "localhost", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 8080, "Port to listen on")
	dbPath := flag.String("db", "", "Game archive directory (empty = in-memory archive)")
	corsOrigin := flag.String("cors-origin", "*", "Access-Control-Allow-Origin value")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	fastWorkers := flag.Int("fast-workers", 100, "Max concurrent move/legality requests")
	slowWorkers := flag.Int("slow-workers", 4, "Max concurrent archive scans and replays")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Go engine API server v%s\n", version)
		os.Exit(0)
	}

	log.Printf("Go engine API server v%s", version)

	if *dbPath == "" {
		log.Printf("Opening in-memory game archive (no -db path given)")
	} else {
		log.Printf("Opening game archive at %s", *dbPath)
	}
	store, err := storage.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer store.Close()

	config := api.ServerConfig{
		Host:           *host,
		Port:           *port,
		CORSOrigin:     *corsOrigin,
		ReadTimeout:    *readTimeout,
		WriteTimeout:   *writeTimeout,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: *fastWorkers,
		MaxSlowWorkers: *slowWorkers,
	}

	server := api.NewServer(store, config, version)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
