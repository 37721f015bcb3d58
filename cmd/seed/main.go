// seed inserts development sample data for local testing. Run via go run ./cmd/seed.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"podnotes/backend/internal/config"
	"podnotes/backend/internal/db"
	membershipdomain "podnotes/backend/internal/membership/domain"
	membershiprepo "podnotes/backend/internal/membership/repository"
	notedomain "podnotes/backend/internal/note/domain"
	noterepo "podnotes/backend/internal/note/repository"
	"podnotes/backend/internal/platform/rbac"
	poddomain "podnotes/backend/internal/pod/domain"
	podrepo "podnotes/backend/internal/pod/repository"
	"podnotes/backend/internal/security"
	userdomain "podnotes/backend/internal/user/domain"
	userrepo "podnotes/backend/internal/user/repository"
)

// Fixed UUID literals keep the seed deterministic across runs; the id columns
// are typed uuid, so the values must parse as such.
const (
	devUserEmail    = "dev@example.com"
	devUsername     = "dev"
	devPassword     = "password123"
	devUserID       = "a1e8f3c0-0001-4c91-9a70-7f3d2b6c0001"
	memberEmail     = "member@example.com"
	memberUsername  = "member"
	memberUserID    = "a1e8f3c0-0002-4c91-9a70-7f3d2b6c0002"
	devPodID        = "b4d2c9e1-0001-4c91-9a70-7f3d2b6c0001"
	devMembershipID = "c7a5e0f2-0002-4c91-9a70-7f3d2b6c0002"
	podNoteID       = "d9c3b1a4-0001-4c91-9a70-7f3d2b6c0001"
	personalNoteID  = "d9c3b1a4-0002-4c91-9a70-7f3d2b6c0002"
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

	users := userrepo.NewPostgresRepository(conn)
	pods := podrepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)
	notes := noterepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	if err := users.Create(ctx, &userdomain.User{
		ID:           devUserID,
		Email:        devUserEmail,
		Username:     devUsername,
		PasswordHash: passwordHash,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev user: %v", err)
	}

	if err := users.Create(ctx, &userdomain.User{
		ID:           memberUserID,
		Email:        memberEmail,
		Username:     memberUsername,
		PasswordHash: passwordHash,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		log.Fatalf("create member user: %v", err)
	}

	// Creates the creator membership for devUserID in the same transaction.
	if err := pods.Create(ctx, &poddomain.Pod{
		ID:          devPodID,
		Name:        "Team Notes",
		Description: "Shared notes for the dev team",
		CreatedBy:   devUserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		log.Fatalf("create pod: %v", err)
	}

	if err := memberships.Create(ctx, &membershipdomain.Membership{
		ID:        devMembershipID,
		PodID:     devPodID,
		UserID:    memberUserID,
		Role:      rbac.RoleEditor,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create membership: %v", err)
	}

	if err := notes.Create(ctx, &notedomain.Note{
		ID:        podNoteID,
		Title:     "Welcome",
		Content:   "This pod is shared between dev and member.",
		PodID:     devPodID,
		OwnerID:   devUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create pod note: %v", err)
	}

	if err := notes.Create(ctx, &notedomain.Note{
		ID:        personalNoteID,
		Title:     "Scratchpad",
		Content:   "Personal note, visible only to dev.",
		OwnerID:   devUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		log.Fatalf("create personal note: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Member login: %s / %s\n", memberEmail, devPassword)
}
