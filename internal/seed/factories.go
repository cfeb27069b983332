// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"math/rand"
	"strings"
	"time"

	"linkboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	rng     *rand.Rand
	maxDays int
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64, maxDays int) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		rng:     rand.New(rand.NewSource(seed)),
		maxDays: maxDays,
	}
}

// BuildUser returns an unsaved user with a unique-looking email and the given hash.
func (f *Factory) BuildUser(passwordHash string) *models.User {
	return &models.User{
		Email:    strings.ToLower(f.faker.Username() + "." + f.faker.LetterN(6) + "@" + f.faker.DomainName()),
		Password: passwordHash,
	}
}

// BuildPost returns an unsaved post owned by owner with a created_at spread over the last maxDays.
func (f *Factory) BuildPost(owner *models.User) *models.Post {
	back := time.Duration(f.rng.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	title := f.faker.Sentence(5)
	if f.rng.Intn(3) == 0 {
		title = f.faker.DomainName() + ": " + title
	}

	return &models.Post{
		Title:     strings.TrimSuffix(title, "."),
		Content:   f.faker.Paragraph(1, 3, 8, "\n"),
		Published: f.rng.Intn(10) != 0,
		OwnerID:   owner.ID,
		CreatedAt: time.Now().Add(-back),
	}
}

// CreateUsersBatch persists users in batches.
func (f *Factory) CreateUsersBatch(users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	return f.db.CreateInBatches(users, 100).Error
}

// CreatePostsBatch persists posts in batches.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Omit("Owner").CreateInBatches(posts, 100).Error
}

// RandomVotes picks up to n distinct (user, post) pairs.
func (f *Factory) RandomVotes(users []*models.User, posts []*models.Post, n int) []*models.Vote {
	if len(users) == 0 || len(posts) == 0 || n <= 0 {
		return nil
	}
	if capacity := len(users) * len(posts); n > capacity {
		n = capacity
	}

	seen := make(map[[2]uint]struct{}, n)
	votes := make([]*models.Vote, 0, n)
	for len(votes) < n {
		u := users[f.rng.Intn(len(users))]
		p := posts[f.rng.Intn(len(posts))]
		key := [2]uint{u.ID, p.ID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		votes = append(votes, &models.Vote{UserID: u.ID, PostID: p.ID})
	}
	return votes
}

// CreateVotesBatch persists votes, skipping pairs that already exist.
func (f *Factory) CreateVotesBatch(votes []*models.Vote) error {
	if len(votes) == 0 {
		return nil
	}
	return f.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(votes, 200).Error
}
