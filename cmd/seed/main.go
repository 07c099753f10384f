// Command seed populates a development database with fake users and activity.
package main

import (
	"context"
	"flag"
	"log"

	"chirper/internal/config"
	"chirper/internal/database"
	"chirper/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	maxFollows := flag.Int("follows", 8, "Maximum follows per user")
	maxLikes := flag.Int("likes", 10, "Maximum likes per post")
	maxComments := flag.Int("comments", 4, "Maximum comments per post")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if config.IsProduction(cfg.Env) {
		log.Fatalf("Refusing to seed a %q database", cfg.Env)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(ctx, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		MaxFollows:  *maxFollows,
		MaxLikes:    *maxLikes,
		MaxComments: *maxComments,
		Seed:        *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d comments", res.Users, res.Posts, res.Comments)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
