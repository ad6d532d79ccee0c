// Package directory reads employee profiles and group memberships from the
// directory tables.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

// ErrUserNotFound is returned by User for an unknown id.
var ErrUserNotFound = errors.New("user not found")

// User is a row of directory_users.
type User struct {
	ID          string `gorm:"column:id;primaryKey"`
	DisplayName string `gorm:"column:display_name;type:text;not null"`
	Email       string `gorm:"column:email;type:text;not null"`
}

func (User) TableName() string { return "directory_users" }

// GroupMember is a row of directory_group_members.
type GroupMember struct {
	GroupID string `gorm:"column:group_id;primaryKey"`
	UserID  string `gorm:"column:user_id;primaryKey"`
}

func (GroupMember) TableName() string { return "directory_group_members" }

// Directory serves profiles and group expansion.
type Directory struct {
	db *gorm.DB
}

// Open wraps an existing connection pool in gorm.
func Open(conn *sql.DB) (*Directory, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	return New(db), nil
}

// New returns a Directory over db.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GroupMembers returns the ids of groupID's members.
func (d *Directory) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).
		Model(&GroupMember{}).
		Where("LOWER(group_id) = ?", normalize(groupID)).
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list members of group %s: %w", groupID, err)
	}
	return ids, nil
}

// Users returns the profiles of the known ids. Unknown ids are omitted.
func (d *Directory) Users(ctx context.Context, ids []string) ([]model.UserProfile, error) {
	keys := normalizeAll(ids)
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []User
	if err := d.db.WithContext(ctx).Where("LOWER(id) IN ?", keys).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	profiles := make([]model.UserProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.profile())
	}
	return profiles, nil
}

// User returns one profile.
func (d *Directory) User(ctx context.Context, id string) (*model.UserProfile, error) {
	var row User
	err := d.db.WithContext(ctx).Where("LOWER(id) = ?", normalize(id)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	p := row.profile()
	return &p, nil
}

func (u User) profile() model.UserProfile {
	name := u.DisplayName
	if name == "" {
		name = u.ID
	}
	return model.UserProfile{ID: normalize(u.ID), DisplayName: name, Email: u.Email}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func normalizeAll(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		k := normalize(id)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
