// Migrate applies the embedded schema migrations. DATABASE_URL comes from the
// environment or .env; -direction selects up (default) or down.
package main

import (
	"flag"
	"log"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/config"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrate: %s complete", *direction)
}
