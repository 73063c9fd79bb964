// Package testutil builds migrated in-memory databases and fixtures for tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/database"
	"github.com/sikp/kp-portal/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory sqlite database that lives for the test
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with the given role
func CreateUser(t testing.TB, db *gorm.DB, name string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Email: name + "-" + uuid.NewString()[:8] + "@kampus.ac.id",
		Name:  name,
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTeam inserts a team whose members are the given student names, first one submitting
func CreateTeam(t testing.TB, db *gorm.DB, names ...string) (*models.Team, []*models.User) {
	t.Helper()
	require.NotEmpty(t, names)

	members := make([]*models.User, 0, len(names))
	for _, name := range names {
		members = append(members, CreateUser(t, db, name, models.RoleStudent))
	}

	team := &models.Team{Name: "Tim " + names[0], SubmittedByID: members[0].ID}
	require.NoError(t, db.Create(team).Error)
	for _, m := range members {
		require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: m.ID, IsActive: true}).Error)
	}
	return team, members
}

// AddMember appends a fresh student to an existing team
func AddMember(t testing.TB, db *gorm.DB, team *models.Team, name string) *models.User {
	t.Helper()

	user := CreateUser(t, db, name, models.RoleStudent)
	require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: user.ID, IsActive: true}).Error)
	return user
}

// CreateProposal inserts a submitted proposal owned by member, on team when team is non-nil
func CreateProposal(t testing.TB, db *gorm.DB, team *models.Team, member *models.User, title string) *models.Proposal {
	t.Helper()

	p := &models.Proposal{
		MemberID:    member.ID,
		Title:       title,
		Description: "Proposal " + title,
		CompanyName: "PT Contoh Abadi",
		Status:      models.ProposalStatusSubmitted,
	}
	if team != nil {
		id := team.ID
		p.TeamID = &id
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
