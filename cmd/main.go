package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"

	"Food-Rescue-Hub/cmd/config"
	migration "Food-Rescue-Hub/cmd/database/migrate"
	"Food-Rescue-Hub/internal/utils"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	utils.LoadConfig()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if *migrateOnly {
		return
	}

	app, shutdown, err := config.NewApp(db, config.Dependencies{})
	if err != nil {
		log.Fatalf("app: %v", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()

	port := utils.GetConfigOr("PORT", "8080")
	if err := app.Listen(":" + port); err != nil {
		log.Errorf("listen: %v", err)
	}
	shutdown()
}
