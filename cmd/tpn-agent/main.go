package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"OFTester/internal/agent"
	"OFTester/internal/config"
	"OFTester/pkg/pcap"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var capture *pcap.Writer
	if cfg.Agent.CaptureDir != "" {
		path := filepath.Join(cfg.Agent.CaptureDir, time.Now().Format("2006-01-02_15-04-05")+".pcap")
		capture, err = pcap.NewWriter(path)
		if err != nil {
			log.Fatalf("Failed to open capture file: %v", err)
		}
		defer capture.Close()
		log.Infof("Capturing emitted frames to %s", path)
	}

	server := &http.Server{
		Addr:    cfg.Agent.ListenAddr,
		Handler: agent.NewRouter(agent.New(capture)),
	}
	go func() {
		log.Infof("Agent REST server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	lis, err := net.Listen("tcp", cfg.Agent.HealthAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.Agent.HealthAddr, err)
	}
	grpcServer, health := agent.NewHealthServer()
	go func() {
		log.Infof("gRPC health server starting on %s", cfg.Agent.HealthAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Agent shutting down...")
	health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	log.Info("Agent exited.")
}
