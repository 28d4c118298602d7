package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"originwidget/apps"
	"originwidget/cli"
	"originwidget/config"
	"originwidget/database"
	"originwidget/handlers"
	"originwidget/service"
	"originwidget/version"
)

func main() {
	config.ParseFlags()

	logPath := config.Settings.LogFilePath
	if config.Settings.CLIMode {
		// Keep the server's log intact when both run from the same directory.
		logPath += ".cli"
	}
	logFile, err := setupLogging(logPath, !config.Settings.CLIMode)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	if config.Settings.CLIMode {
		mainCLI()
		return
	}

	log.Printf("originwidget %s starting up...", version.GetFullVersion())

	db, err := database.Open(config.Settings)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	catalog, err := apps.NewDirCatalog(config.Settings.AppsDir)
	if err != nil {
		log.Fatalf("Failed to load app catalog: %v", err)
	}

	svc := service.New(db, catalog, config.Settings)
	svc.Start()

	if config.Settings.RefreshOnStartup {
		queued, err := svc.RefreshAll()
		if err != nil {
			log.Printf("Warning: startup refresh failed: %v", err)
		} else {
			log.Printf("Startup refresh queued for %d widget(s)", queued)
		}
	}

	go monitorGoroutines()

	if !config.Settings.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = log.Writer()
	gin.DefaultErrorWriter = log.Writer()
	gin.DisableConsoleColor()

	router := handlers.NewRouter(handlers.New(svc, config.Settings))

	port := findAvailablePort(config.Settings.Port)
	if port != config.Settings.Port {
		log.Printf("Default port %d is busy. Switched to %d", config.Settings.Port, port)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", port),
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on http://127.0.0.1:%d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Received interrupt signal, shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// In-flight renders finish before the database closes.
	svc.Stop()

	if err := database.Close(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Server exited")
}

// findAvailablePort returns the first free port at or above startPort.
func findAvailablePort(startPort int) int {
	for port := startPort; port < startPort+100; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
		if err == nil {
			listener.Close()
			return port
		}
	}
	log.Fatal("No available ports found")
	return startPort
}

func monitorGoroutines() {
	interval := config.Settings.GoroutineMonitorSec
	if interval <= 0 {
		interval = 60
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		count := runtime.NumGoroutine()
		if count > config.Settings.GoroutineWarnThreshold {
			log.Printf("WARNING: High goroutine count detected: %d", count)
		} else if config.Settings.Debug() {
			log.Printf("Current goroutine count: %d", count)
		}
	}
}

// mainCLI runs the interactive client against a running server.
func mainCLI() {
	serverURL := config.Settings.CLIServer
	fmt.Printf("originwidget CLI - Connecting to %s\n", serverURL)

	cliInstance, err := cli.NewCLIHttp(serverURL)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("\nTips:")
		fmt.Println("  1. Make sure the originwidget server is running:")
		fmt.Println("     ./originwidget")
		fmt.Println("  2. Or specify a different server:")
		fmt.Println("     ./originwidget --cli --server http://your-server:7790")
		os.Exit(1)
	}

	cliInstance.Start()
}
