package main

import (
	"context"
	"fmt"
	"net/http"

	"signalcore/config"
	"signalcore/server"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	logger = logrus.New()
)

// Main function to start the relay.
func main() {
	s := server.NewServer(
		context.Background(),
		redis.NewClient(&redis.Options{Addr: config.RedisAddress}),
		logger,
	)
	defer s.Close()

	r := mux.NewRouter()
	r.HandleFunc(config.WebSocketPath, s.HandleConnections)
	r.HandleFunc(fmt.Sprintf("%s/{userID}", config.PublishKeysPath), s.HandlePostKeys).Methods(http.MethodPost)
	r.HandleFunc(fmt.Sprintf("%s/{userID}", config.PublishKeysPath), s.HandleGetKeys).Methods(http.MethodGet)

	logger.Infof("Relay running on ws://%s%s", config.ServerAddress, config.WebSocketPath)
	if err := http.ListenAndServe(config.ServerAddress, r); err != nil {
		logger.Fatalf("Error starting server: %v", err)
	}

	logger.Info("Closing server...")
}
