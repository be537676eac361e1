// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"ripple/internal/models"
	"ripple/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder populates the database with realistic demo data.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	// #nosec G404: acceptable for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Seeder{db: db, rng: rng}
}

// ClearAll removes all seeded data. Children first to satisfy foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []interface{}{
		&models.Notification{},
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (s *Seeder) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := validation.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: hashed,
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SeedSocialMesh creates users and a follow graph between them.
func (s *Seeder) SeedSocialMesh(numUsers int) ([]*models.User, error) {
	log.Printf("Seeding %d users...", numUsers)

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		user, err := s.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	// Each user follows a handful of others.
	follows := 0
	for _, follower := range users {
		count := s.rng.Intn(8) + 1
		for j := 0; j < count; j++ {
			followee := users[s.rng.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}
			follow := &models.Follow{
				FollowerID: follower.ID,
				FolloweeID: followee.ID,
			}
			err := s.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "follower_id"}, {Name: "followee_id"}},
				DoNothing: true,
			}).Create(follow).Error
			if err != nil {
				return nil, err
			}
			follows++
		}
	}

	log.Printf("Created %d users and %d follows", len(users), follows)
	return users, nil
}

// SeedEngagement creates posts plus likes, comments, and the matching like
// notifications, spread over the last 90 days.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to seed posts for")
	}
	log.Printf("Seeding %d posts...", numPosts)

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[s.rng.Intn(len(users))]
		post := &models.Post{
			UserID:    author.ID,
			Text:      gofakeit.Paragraph(1, 2, 8, "\n"),
			CreatedAt: s.spreadTime(90),
		}
		if s.rng.Intn(3) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
		}
		if err := s.db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	likes, comments := 0, 0
	for _, post := range posts {
		likeCount := s.rng.Intn(6)
		for j := 0; j < likeCount; j++ {
			liker := users[s.rng.Intn(len(users))]
			like := &models.Like{UserID: liker.ID, PostID: post.ID}
			err := s.db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
				DoNothing: true,
			}).Create(like).Error
			if err != nil {
				return nil, err
			}
			likes++

			if liker.ID != post.UserID {
				notification := &models.Notification{
					FromUserID: liker.ID,
					ToUserID:   post.UserID,
					Type:       models.NotificationTypeLike,
				}
				if err := s.db.Create(notification).Error; err != nil {
					return nil, err
				}
			}
		}

		commentCount := s.rng.Intn(4)
		for j := 0; j < commentCount; j++ {
			commenter := users[s.rng.Intn(len(users))]
			comment := &models.Comment{
				PostID: post.ID,
				UserID: commenter.ID,
				Text:   gofakeit.Sentence(8),
			}
			if err := s.db.Create(comment).Error; err != nil {
				return nil, err
			}
			comments++
		}
	}

	log.Printf("Created %d posts, %d likes, %d comments", len(posts), likes, comments)
	return posts, nil
}

// spreadTime returns a timestamp up to maxDays in the past.
func (s *Seeder) spreadTime(maxDays int) time.Time {
	daysBack := s.rng.Intn(maxDays)
	hoursBack := s.rng.Intn(24)
	minsBack := s.rng.Intn(60)
	return time.Now().
		Add(-time.Duration(daysBack) * 24 * time.Hour).
		Add(-time.Duration(hoursBack) * time.Hour).
		Add(-time.Duration(minsBack) * time.Minute)
}
