package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"docchat/app/server"
	"docchat/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	s := server.NewServer(cfg)

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("server error: ", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")
	s.Stop()
}
