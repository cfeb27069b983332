package seed

import (
	"context"
	"fmt"
	"log/slog"

	"linkboard/internal/middleware"
	"linkboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the login password given to every seeded user.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	NumVotes    int
	ShouldClean bool
	// Seed makes runs reproducible; zero picks a random seed.
	Seed int64
	// BcryptCost for the shared password hash; zero uses bcrypt.DefaultCost.
	BcryptCost int
}

// Result reports what a seeding run created.
type Result struct {
	Users int
	Posts int
	Votes int
}

// Seed populates the database with demo users, posts and votes.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	log := middleware.Logger
	log.Info("Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
		slog.Int("votes", opts.NumVotes),
	)

	db = db.WithContext(ctx)
	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f := NewFactory(db, opts.Seed, 0)
	result := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		users = append(users, f.BuildUser(string(hash)))
	}
	if err := f.CreateUsersBatch(users); err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	result.Users = len(users)

	if len(users) == 0 {
		log.Info("No users created; skipping posts and votes")
		return result, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(users[i%len(users)]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	result.Posts = len(posts)

	votes := f.RandomVotes(users, posts, opts.NumVotes)
	if err := f.CreateVotesBatch(votes); err != nil {
		return nil, fmt.Errorf("failed to create votes: %w", err)
	}
	result.Votes = len(votes)

	log.Info("Database seeding complete",
		slog.Int("users", result.Users),
		slog.Int("posts", result.Posts),
		slog.Int("votes", result.Votes),
		slog.String("password", DefaultPassword),
	)
	return result, nil
}

// clearData removes all rows; votes first so no foreign key is left dangling.
func clearData(db *gorm.DB) error {
	for _, model := range []any{&models.Vote{}, &models.Post{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
