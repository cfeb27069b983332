// Command seed fills the database with demo users, posts and votes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"linkboard/internal/bootstrap"
	"linkboard/internal/config"
	"linkboard/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	users := flag.Int("users", 20, "number of users to create")
	posts := flag.Int("posts", 100, "number of posts to create")
	votes := flag.Int("votes", 300, "number of votes to cast")
	clean := flag.Bool("clean", false, "delete existing users, posts and votes first")
	seedVal := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		return errors.New("refusing to seed a production database")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, SkipRedis: true})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx, true) }()

	res, err := seed.Seed(ctx, rt.DB, seed.Options{
		NumUsers:    *users,
		NumPosts:    *posts,
		NumVotes:    *votes,
		ShouldClean: *clean,
		Seed:        *seedVal,
		BcryptCost:  cfg.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Printf("Seeded %d users, %d posts and %d votes", res.Users, res.Posts, res.Votes)
	return nil
}
