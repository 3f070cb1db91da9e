package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*password_hash,\s*role,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	u := &models.User{ID: uuid.New(), UserName: "alice", PasswordHash: "hash", Role: models.RoleUser, CreatedAt: time.Now()}

	mock.ExpectExec(insertQ).
		WithArgs(u.ID, "alice", "hash", "User", u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})

	err := repo.Create(context.Background(), &models.User{ID: uuid.New(), UserName: "alice", Role: models.RoleUser})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{ID: uuid.New(), UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want common.ErrorInternal, got %v", err)
	}
}

func TestGetByUserName_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*role,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	id := uuid.New()
	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
		AddRow(id.String(), "alice", "hash", "Admin", created)
	mock.ExpectQuery(q).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByUserName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUserName error: %v", err)
	}
	if got.ID != id || got.UserName != "alice" || got.Role != models.RoleAdmin || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByUserName_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserName(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*password_hash,\s*role,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
		AddRow(id.String(), "bob", "hash", "User", time.Now())
	mock.ExpectQuery(q).
		WithArgs(id).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.UserName != "bob" || got.Role != models.RoleUser {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_UnknownStoredRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
		AddRow(id.String(), "mallory", "hash", "Root", time.Now())
	mock.ExpectQuery(q).
		WithArgs(id).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), id)
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want common.ErrorInternal, got %v", err)
	}
	if got != nil {
		t.Fatalf("no user must be returned for an unknown role, got %+v", got)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`

	id := uuid.New()
	mock.ExpectQuery(q).
		WithArgs(id).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), id)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+role\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`

	id := uuid.New()
	mock.ExpectExec(q).WithArgs(id, "Admin").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateRole(context.Background(), id, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole error: %v", err)
	}

	mock.ExpectExec(q).WithArgs(id, "Admin").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateRole(context.Background(), id, models.RoleAdmin); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
