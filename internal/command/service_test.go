package command

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/models"

	"github.com/DATA-DOG/go-sqlmock"
)

// mockPublisher captures published events.
type mockPublisher struct {
	published []publishedMsg
	err       error
}

type publishedMsg struct {
	RoutingKey    string
	Body          []byte
	CorrelationID string
}

func (m *mockPublisher) Publish(_ context.Context, routingKey string, body []byte, correlationID string) error {
	m.published = append(m.published, publishedMsg{
		RoutingKey:    routingKey,
		Body:          body,
		CorrelationID: correlationID,
	})
	return m.err
}

func validRequest() models.CreateUserRequest {
	return models.CreateUserRequest{
		Name:        "Test User",
		Email:       "test@example.com",
		Description: "tester",
		Permission:  models.PermissionAdmin,
	}
}

func TestCreateUser_WithPermission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Test User", "test@example.com", "tester",
			sql.NullString{String: "admin", Valid: true}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT description FROM permissions").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"description"}).AddRow("Admin is a super user to the app"))
	mock.ExpectCommit()

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	user, err := svc.CreateUser(context.Background(), validRequest(), "corr-001")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID == "" {
		t.Error("expected user ID to be assigned")
	}
	if user.Permission != "admin" {
		t.Errorf("expected permission admin, got %s", user.Permission)
	}

	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.published))
	}
	if pub.published[0].RoutingKey != "user.created" {
		t.Errorf("expected first routing key user.created, got %s", pub.published[0].RoutingKey)
	}
	if pub.published[1].RoutingKey != "permission.user_related" {
		t.Errorf("expected second routing key permission.user_related, got %s", pub.published[1].RoutingKey)
	}

	var related models.UserEvent
	if err := json.Unmarshal(pub.published[1].Body, &related); err != nil {
		t.Fatalf("failed to unmarshal related event: %v", err)
	}
	if related.Data.PermissionDescription != "Admin is a super user to the app" {
		t.Errorf("expected embedded permission description, got %q", related.Data.PermissionDescription)
	}
	if related.Data.ID != user.ID {
		t.Errorf("expected payload id %s, got %s", user.ID, related.Data.ID)
	}
	if related.CorrelationID != "corr-001" {
		t.Errorf("expected correlation id corr-001, got %s", related.CorrelationID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUser_WithoutPermission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Test User", "test@example.com", "tester",
			sql.NullString{}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	req := validRequest()
	req.Permission = ""

	if _, err := svc.CreateUser(context.Background(), req, "corr-002"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	if pub.published[0].RoutingKey != "user.created" {
		t.Errorf("expected routing key user.created, got %s", pub.published[0].RoutingKey)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUser_UnknownPermission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT description FROM permissions").
		WithArgs("superadmin").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	req := validRequest()
	req.Permission = "superadmin"

	_, err = svc.CreateUser(context.Background(), req, "corr-003")
	if !errors.Is(err, cqrs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if len(pub.published) != 0 {
		t.Fatalf("expected no events for a rolled-back write, got %d", len(pub.published))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUser_ValidationBeforeStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	req := validRequest()
	req.Email = ""

	_, err = svc.CreateUser(context.Background(), req, "corr-004")
	if !errors.Is(err, cqrs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("expected no events, got %d", len(pub.published))
	}

	// No Begin/Exec expectations were registered: any store access fails here.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected store access: %v", err)
	}
}

func TestCreateUser_CommitFailurePublishesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT description FROM permissions").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"description"}).AddRow("Admin is a super user to the app"))
	mock.ExpectCommit().WillReturnError(fmt.Errorf("connection reset"))

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	_, err = svc.CreateUser(context.Background(), validRequest(), "corr-005")
	if !errors.Is(err, cqrs.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	if len(pub.published) != 0 {
		t.Fatalf("expected zero events for an uncommitted write, got %d", len(pub.published))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUser_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	pub := &mockPublisher{}
	svc := NewService(db, pub)

	_, err = svc.CreateUser(context.Background(), validRequest(), "corr-006")
	if !errors.Is(err, cqrs.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("expected no events, got %d", len(pub.published))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestCreateUser_PublishFailureDoesNotFailWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT description FROM permissions").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"description"}).AddRow("Admin is a super user to the app"))
	mock.ExpectCommit()

	pub := &mockPublisher{err: fmt.Errorf("broker down")}
	svc := NewService(db, pub)

	user, err := svc.CreateUser(context.Background(), validRequest(), "corr-007")
	if err != nil {
		t.Fatalf("publish failure must not fail the write, got %v", err)
	}
	if user.ID == "" {
		t.Error("expected a durable user despite broker outage")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
