package database

import (
	"context"
	"errors"
	"fmt"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/domain/user"
	"civic-pulse/internal/repository"
	pulse_errors "civic-pulse/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedConfig holds configuration for seeding a development database
type SeedConfig struct {
	AdminEmail       string
	AdminDisplayName string
	CreateTestUsers  bool
	TestUserCount    int
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminEmail:       "admin@civic.local",
		AdminDisplayName: "System Admin",
		CreateTestUsers:  true,
		TestUserCount:    4,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser *user.User
	TestUsers []*user.User
	Polls     []*poll.Poll
}

var seedGenders = []string{"female", "male", "other", ""}

// Seed upserts an admin and a few voters by email, then adds two sample
// polls. Running it again refreshes the users but adds new polls.
func Seed(ctx context.Context, db *gorm.DB, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	tx := db.WithContext(ctx)
	users := repository.NewUserRepository(db)
	result := &SeedResult{}

	admin := &user.User{
		DisplayName: cfg.AdminDisplayName,
		Email:       cfg.AdminEmail,
		Role:        user.RoleAdmin,
	}
	if err := upsertUser(ctx, users, admin); err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	result.AdminUser = admin

	if cfg.CreateTestUsers {
		for i := 0; i < cfg.TestUserCount; i++ {
			u := &user.User{
				DisplayName: fmt.Sprintf("Voter %d", i+1),
				Email:       fmt.Sprintf("voter%d@civic.local", i+1),
				Role:        user.RoleUser,
				Gender:      seedGenders[i%len(seedGenders)],
				Location:    poll.Location{Country: "GR", City: "Athens"},
			}
			if err := upsertUser(ctx, users, u); err != nil {
				return nil, fmt.Errorf("failed to seed test user: %w", err)
			}
			result.TestUsers = append(result.TestUsers, u)
		}
	}

	referendum := seedPoll(admin.ID, "Should the square be pedestrianised?", []string{"Ναι", "Όχι"})
	referendum.AllowUserOptions = true
	referendum.UserOptionApproval = poll.ApprovalCreator
	referendum.AnonymousResponses = true

	council := seedPoll(admin.ID, "Who should chair the neighbourhood council?", []string{"Eleni Papadopoulou", "Nikos Georgiou"})
	council.OptionsArePeople = true
	council.LinkPolicy = poll.LinkPolicy{Mode: poll.LinkModeAllowlist, AllowedDomains: []string{"linkedin.com", "gov.gr"}}
	for i := range council.Options {
		council.Options[i].Kind = poll.OptionKindPerson
	}

	for _, p := range []*poll.Poll{referendum, council} {
		if err := tx.Create(p).Error; err != nil {
			return nil, fmt.Errorf("failed to seed poll: %w", err)
		}
		result.Polls = append(result.Polls, p)
	}
	return result, nil
}

// upsertUser creates u, or updates the existing account with the same email
// and takes over its id.
func upsertUser(ctx context.Context, users repository.UserRepository, u *user.User) error {
	existing, err := users.GetUserByEmail(ctx, u.Email)
	if errors.Is(err, pulse_errors.ErrNotFound) {
		u.ID = uuid.NewString()
		return users.Create(ctx, u)
	}
	if err != nil {
		return err
	}
	u.ID = existing.ID
	return users.UpdateUser(ctx, *u)
}

func seedPoll(creatorID, question string, texts []string) *poll.Poll {
	p := &poll.Poll{
		ID:                 uuid.NewString(),
		Question:           question,
		CreatorID:          creatorID,
		UserOptionApproval: poll.ApprovalAuto,
		LinkPolicy:         poll.LinkPolicy{Mode: poll.LinkModeAny, AllowedDomains: []string{}},
	}
	for i, text := range texts {
		p.Options = append(p.Options, poll.Option{
			ID:       uuid.NewString(),
			PollID:   p.ID,
			Position: i,
			Kind:     poll.OptionKindText,
			Text:     text,
			Status:   poll.OptionApproved,
		})
	}
	return p
}
