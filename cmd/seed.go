package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/skrasekmichael/teamup/internal/config"
	"github.com/skrasekmichael/teamup/internal/db"
	"github.com/skrasekmichael/teamup/internal/domain"
	"github.com/skrasekmichael/teamup/internal/util"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo users and a demo team",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo users and team...")

		if err := seedDemo(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type demoUser struct {
	email string
	name  string
	token string
}

// seedDemo inserts deterministic demo accounts and one team (idempotent:
// upserts keyed on the users UNIQUE email).
func seedDemo(dbx *sqlx.DB) error {
	users := []demoUser{
		{email: "alice@example.com", name: "Alice Demo", token: "11111111111111111111111111111111"},
		{email: "bob@example.com", name: "Bob Demo", token: "22222222222222222222222222222222"},
		{email: "carol@example.com", name: "Carol Demo", token: "33333333333333333333333333333333"},
	}

	const upsertUser = `
INSERT INTO users
    (id, email, name, status, activation_code, access_token, version, created_at, updated_at)
VALUES
    (?, ?, ?, ?, '', ?, 1, ?, ?)
ON DUPLICATE KEY UPDATE
    name         = VALUES(name),
    status       = VALUES(status),
    access_token = VALUES(access_token),
    updated_at   = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	ids := make([]string, 0, len(users))
	for _, u := range users {
		id := util.New()
		if _, err := tx.Exec(upsertUser, id, u.email, u.name, domain.UserStatusActive, u.token, now, now); err != nil {
			return fmt.Errorf("insert user %q: %w", u.email, err)
		}
		// the row may pre-exist with a different id
		var actual string
		if err := tx.Get(&actual, `SELECT id FROM users WHERE email = ?`, u.email); err != nil {
			return fmt.Errorf("lookup user %q: %w", u.email, err)
		}
		ids = append(ids, actual)
	}

	// one demo team owned by the first user, others as members
	var teamID string
	err = tx.Get(&teamID, `SELECT id FROM teams WHERE name = ?`, "Demo Team")
	if err != nil {
		teamID = util.New()
		if _, err := tx.Exec(
			`INSERT INTO teams (id, name, owner_id, version, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
			teamID, "Demo Team", ids[0], now, now,
		); err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
	}

	const upsertMember = `
INSERT INTO team_members (team_id, user_id, role, created_at)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE role = VALUES(role)
`
	for i, id := range ids {
		role := domain.RoleMember
		if i == 0 {
			role = domain.RoleOwner
		}
		if _, err := tx.Exec(upsertMember, teamID, id, role, now); err != nil {
			return fmt.Errorf("insert member %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
