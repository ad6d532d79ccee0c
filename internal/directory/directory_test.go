package directory

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

func newMockDirectory(t *testing.T) (*Directory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	d, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return d, mock
}

func TestProfileFallsBackToID(t *testing.T) {
	t.Parallel()

	got := User{ID: "Alice", Email: "alice@example.com"}.profile()
	want := model.UserProfile{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"}
	if got != want {
		t.Fatalf("profile = %+v, want %+v", got, want)
	}
}

func TestNormalizeAll(t *testing.T) {
	t.Parallel()

	got := normalizeAll([]string{" Bob", "bob", "", "carol"})
	if want := []string{"bob", "carol"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeAll = %v, want %v", got, want)
	}
}

func TestTableNames(t *testing.T) {
	t.Parallel()

	if (User{}).TableName() != "directory_users" || (GroupMember{}).TableName() != "directory_group_members" {
		t.Fatal("table names must match the migrations")
	}
}

func TestGroupMembers(t *testing.T) {
	t.Parallel()
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "directory_group_members" WHERE LOWER(group_id) = $1 ORDER BY user_id`)).
		WithArgs("platform-team").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("alice").AddRow("bob"))

	got, err := d.GroupMembers(context.Background(), " Platform-Team")
	if err != nil {
		t.Fatalf("group members: %v", err)
	}
	if want := []string{"alice", "bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("members = %v, want %v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGroupMembersWrapsQueryError(t *testing.T) {
	t.Parallel()
	d, mock := newMockDirectory(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "directory_group_members"`)).WillReturnError(boom)

	if _, err := d.GroupMembers(context.Background(), "eng"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "directory_users" WHERE LOWER(id) IN ($1,$2) ORDER BY id`)).
		WithArgs("alice", "bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email"}).
			AddRow("alice", "Alice Adams", "alice@example.com").
			AddRow("bob", "", "bob@example.com"))

	got, err := d.Users(context.Background(), []string{"Alice", "bob", "alice"})
	if err != nil {
		t.Fatalf("users: %v", err)
	}
	want := []model.UserProfile{
		{ID: "alice", DisplayName: "Alice Adams", Email: "alice@example.com"},
		{ID: "bob", DisplayName: "bob", Email: "bob@example.com"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("users = %+v, want %+v", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUsersWithoutIDsSkipsQuery(t *testing.T) {
	t.Parallel()
	d, mock := newMockDirectory(t)

	got, err := d.Users(context.Background(), []string{" ", ""})
	if err != nil || got != nil {
		t.Fatalf("users = %v, %v; want nil, nil", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUser(t *testing.T) {
	t.Parallel()
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "directory_users" WHERE LOWER(id) = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email"}).
			AddRow("carol", "Carol Chen", "carol@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "directory_users" WHERE LOWER(id) = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_name", "email"}))

	p, err := d.User(context.Background(), "Carol")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if p.DisplayName != "Carol Chen" || p.ID != "carol" {
		t.Fatalf("profile = %+v", p)
	}

	if _, err := d.User(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}
