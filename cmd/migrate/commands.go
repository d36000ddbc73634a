package main

import (
	"fmt"
	"time"

	"civic-pulse/internal/identity"
	"civic-pulse/internal/proxy"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/services"
	"civic-pulse/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func upCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or update all tables and indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := repository.InitSchema(db); err != nil {
				return err
			}
			cmd.Println("schema is up to date")
			return nil
		},
	}
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database connectivity and which tables exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.HealthCheck(cmd.Context(), db); err != nil {
				return err
			}
			cmd.Printf("connected (%s)\n", cfg.DBDriver)

			tables, err := repository.SchemaStatus(db)
			if err != nil {
				return err
			}
			for _, t := range tables {
				state := "missing"
				if t.Exists {
					state = "ok"
				}
				cmd.Printf("  %-20s %s\n", t.Table, state)
			}
			return nil
		},
	}
}

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [poll-id...]",
		Short: "Compare cached vote counters with the vote ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachPoll(cmd, args, func(svc *services.PollService, pollID string) (int, error) {
				diffs, err := svc.VerifyTally(cmd.Context(), pollID)
				for _, d := range diffs {
					cmd.Printf("%s option %s: cached %d, ledger %d\n", pollID, d.OptionID, d.Cached, d.Ledger)
				}
				return len(diffs), err
			}, "drifted")
		},
	}
}

func reconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [poll-id...]",
		Short: "Rewrite cached vote counters from the vote ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return forEachPoll(cmd, args, func(svc *services.PollService, pollID string) (int, error) {
				fixed, err := svc.ReconcileTally(cmd.Context(), pollID)
				for _, d := range fixed {
					cmd.Printf("%s option %s: %d -> %d\n", pollID, d.OptionID, d.Cached, d.Ledger)
				}
				return len(fixed), err
			}, "")
		},
	}
}

// forEachPoll runs fn over the given polls, or all polls when none are
// named. When failOn is set, any reported difference fails the command.
func forEachPoll(cmd *cobra.Command, args []string, fn func(*services.PollService, string) (int, error), failOn string) error {
	_, db, err := connect()
	if err != nil {
		return err
	}
	defer database.Close(db)

	svc := operationsService(db)
	ids := args
	if len(ids) == 0 {
		ids, err = repository.NewPollRepository(db).ListIDs(cmd.Context())
		if err != nil {
			return err
		}
	}

	total := 0
	for _, id := range ids {
		n, err := fn(svc, id)
		if err != nil {
			return fmt.Errorf("poll %s: %w", id, err)
		}
		total += n
	}
	cmd.Printf("%d polls checked, %d options affected\n", len(ids), total)
	if failOn != "" && total > 0 {
		return fmt.Errorf("%d options %s", total, failOn)
	}
	return nil
}

// operationsService builds a PollService without live events, cache or
// photo storage.
func operationsService(db *gorm.DB) *services.PollService {
	users := repository.NewUserRepository(db)
	return services.NewPollService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		users,
		identity.NewResolver(nil),
		nil,
		proxy.NewAccessControl(users),
		services.PollServiceOptions{},
	)
}

func seedDevCommand() *cobra.Command {
	seedCfg := database.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed-dev",
		Short: "Upsert an admin and voters, then add sample polls",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := repository.InitSchema(db); err != nil {
				return err
			}
			result, err := database.Seed(cmd.Context(), db, seedCfg)
			if err != nil {
				return err
			}
			cmd.Printf("admin: %s (%s)\n", result.AdminUser.ID, result.AdminUser.Email)
			for _, u := range result.TestUsers {
				cmd.Printf("voter: %s (%s)\n", u.ID, u.Email)
			}
			for _, p := range result.Polls {
				cmd.Printf("poll:  %s %q\n", p.ID, p.Question)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&seedCfg.AdminEmail, "admin-email", seedCfg.AdminEmail, "admin email")
	flags.StringVar(&seedCfg.AdminDisplayName, "admin-name", seedCfg.AdminDisplayName, "admin display name")
	flags.BoolVar(&seedCfg.CreateTestUsers, "test-users", seedCfg.CreateTestUsers, "create test voters")
	flags.IntVar(&seedCfg.TestUserCount, "test-user-count", seedCfg.TestUserCount, "number of test voters")
	return cmd
}

func tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for a user, for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer database.Close(db)

			users := repository.NewUserRepository(db)
			u, err := users.GetUserByID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			token, ttl, err := services.NewAuthService(users, cfg).IssueAccessToken(u)
			if err != nil {
				return err
			}
			cmd.Println(token)
			cmd.PrintErrf("expires in %s\n", time.Duration(ttl)*time.Second)
			return nil
		},
	}
}
