package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/anti-app/antiapp-backend/internal/app"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to the config file")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	if *migrateOnly {
		if errMigrate := app.Migrate(*configPath); errMigrate != nil {
			log.WithError(errMigrate).Fatal("migration failed")
		}
		log.Info("migrations applied")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := app.RunServer(ctx, *configPath); errRun != nil {
		log.WithError(errRun).Fatal("server exited")
	}
}
