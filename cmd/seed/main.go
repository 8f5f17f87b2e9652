// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/enayetsyl/gtc-deploy-sub000/internal/config"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/db"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/platform/rbac"
	"github.com/enayetsyl/gtc-deploy-sub000/internal/security"
	userrepo "github.com/enayetsyl/gtc-deploy-sub000/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	ownerEmail    = "owner@example.com"
	pointEmail    = "point@example.com"
	devPassword   = "password123"
	adminID       = "7f4d2a10-0000-4000-8000-000000000001"
	ownerID       = "7f4d2a10-0000-4000-8000-000000000002"
	pointUserID   = "7f4d2a10-0000-4000-8000-000000000003"
	sectorID      = "7f4d2a10-0000-4000-8000-000000000010"
	pointID       = "7f4d2a10-0000-4000-8000-000000000020"
	serviceAID    = "7f4d2a10-0000-4000-8000-000000000030"
	serviceBID    = "7f4d2a10-0000-4000-8000-000000000031"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	exec := func(query string, args ...any) {
		if _, err := conn.ExecContext(ctx, query, args...); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	exec(`INSERT INTO sectors (id, name, created_at) VALUES ($1, $2, $3)`,
		sectorID, "Training", now)
	exec(`INSERT INTO services (id, code, name, sector_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		serviceAID, "COURSES", "Course delivery", sectorID, now)
	exec(`INSERT INTO services (id, code, name, sector_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		serviceBID, "CERT", "Certification", sectorID, now)
	exec(`INSERT INTO gtc_points (id, name, email, sector_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		pointID, "Demo Point", "demo-point@example.com", sectorID, now)
	exec(`INSERT INTO gtc_point_services (gtc_point_id, service_id, status, created_at, updated_at) VALUES ($1, $2, 'ENABLED', $3, $3)`,
		pointID, serviceAID, now)

	exec(`INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		adminID, adminEmail, "Dev Admin", passwordHash, string(rbac.RoleAdmin), now)
	exec(`INSERT INTO users (id, email, name, password_hash, role, sector_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		ownerID, ownerEmail, "Dev Sector Owner", passwordHash, string(rbac.RoleSectorOwner), sectorID, now)
	exec(`INSERT INTO users (id, email, name, password_hash, role, sector_id, gtc_point_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		pointUserID, pointEmail, "Dev Point User", passwordHash, string(rbac.RoleGtcPoint), sectorID, pointID, now)

	log.Printf("Seed complete. Users %s / %s / %s, password %q.", adminEmail, ownerEmail, pointEmail, devPassword)
}
