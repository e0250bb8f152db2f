package main

import (
	"flag"
	"fmt"
	"gw-transfer-service/internal/config"
	"gw-transfer-service/internal/service"
	"gw-transfer-service/pkg/logger"
	"log"
	"log/slog"
	"os"
)

// tokengen issues a bearer token for an API client using JWT_SECRET from config.env or the environment.
func main() {
	clientID := flag.String("client", "", "client id to embed in the token")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфига: %v", err)
	}
	if !cfg.AuthEnabled() {
		log.Fatal("JWT_SECRET не задан")
	}

	lg := slog.New(logger.NewLevelBasedMuxHandler(os.Stderr, nil, logger.ParseLevel(cfg.App.LogLevel)))
	auth := service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Expiration, lg)

	token, err := auth.IssueToken(*clientID)
	if err != nil {
		log.Fatalf("Ошибка выпуска токена: %v", err)
	}
	fmt.Println(token)
}
