package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/kennethnrk/audiometa/internal/config"
	"github.com/kennethnrk/audiometa/internal/metadata/audioclassifier"
	"github.com/kennethnrk/audiometa/internal/modelinfo"
	grpcwriter "github.com/kennethnrk/audiometa/internal/registry/api/grpc"
	"github.com/kennethnrk/audiometa/internal/registry/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	inspector, closeInspector, err := modelinfo.New(cfg.ModelFormat, cfg.ONNXRuntimeLibPath)
	if err != nil {
		log.Fatalf("failed to init %s inspector: %v", cfg.ModelFormat, err)
	}
	defer closeInspector()

	log.Println("Initializing metadata store at", cfg.DataDir)
	s, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	defer s.Close()

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.GRPCAddr, err)
	}

	srv := grpcwriter.NewGRPCServer(s, audioclassifier.NewBuilder(inspector), grpcwriter.MaxMsgSizeServerOptions(cfg.MaxMsgSize)...)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Printf("Received %s, shutting down", sig)
		srv.GracefulStop()
	}()

	log.Printf("metadata writer gRPC server listening on %s (model format %s, max message %d bytes)", cfg.GRPCAddr, cfg.ModelFormat, cfg.MaxMsgSize)
	if err := srv.Serve(lis); err != nil {
		log.Printf("gRPC server stopped: %v", err)
	}
}
