package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dailyserve/lifehub/internal/config"
	"github.com/dailyserve/lifehub/internal/db"
	"github.com/dailyserve/lifehub/internal/logging"
	"github.com/dailyserve/lifehub/internal/user"
)

// Promotes an existing user to provider by email, letting them list
// services and fulfill orders.
// Usage: go run ./cmd/adminutil/promote_provider user@example.com
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: promote_provider <email>")
		os.Exit(1)
	}
	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.Init(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	db.Init(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	defer db.Close(ctx)

	res, err := db.Users().UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": user.RoleProvider, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		log.Fatalf("failed to promote user: %v", err)
	}
	if res.MatchedCount == 0 {
		log.Fatalf("no user with email %s", email)
	}

	fmt.Printf("%s is now a provider\n", email)
}
