// Package command implements the write path: validate, persist inside a
// single transaction, and publish domain events only after the commit.
package command

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventPublisher defines the bus surface the command side needs.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, correlationID string) error
}

// Service handles user commands against the authoritative store.
type Service struct {
	DB        *sql.DB
	Publisher EventPublisher

	// PublishTimeout bounds post-commit publication. Publication runs on a
	// context detached from the request: once the commit succeeded, a
	// cancelled caller must not be able to suppress the events.
	PublishTimeout time.Duration
}

// NewService creates a command service.
func NewService(db *sql.DB, pub EventPublisher) *Service {
	return &Service{DB: db, Publisher: pub, PublishTimeout: 10 * time.Second}
}

// CreateUser persists a new user and, after a successful commit, publishes
// the resulting events. Before the commit every failure rolls back and
// surfaces to the caller; after the commit a publish failure is logged and
// swallowed — the write is durable, projection catches up on redelivery.
func (s *Service) CreateUser(ctx context.Context, req models.CreateUserRequest, correlationID string) (models.User, error) {
	if err := validate(req); err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Email:       req.Email,
		Description: req.Description,
		Permission:  req.Permission,
		CreatedAt:   time.Now().UTC(),
	}

	permissionDescription, err := s.insertUser(ctx, user)
	if err != nil {
		return models.User{}, err
	}

	s.publishEvents(user, permissionDescription, correlationID)
	return user, nil
}

// insertUser runs the single transaction of the write path: insert the user
// row and, when a permission is attached, resolve its description from the
// reference table so the events can embed it.
func (s *Service) insertUser(ctx context.Context, user models.User) (string, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: begin transaction: %v", cqrs.ErrStoreUnavailable, err)
	}

	permission := sql.NullString{String: user.Permission, Valid: user.Permission != ""}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, description, permission, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Name, user.Email, user.Description, permission, user.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback()
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", fmt.Errorf("user %q: %w", user.ID, cqrs.ErrConflict)
		}
		return "", fmt.Errorf("%w: insert user: %v", cqrs.ErrStoreUnavailable, err)
	}

	var permissionDescription string
	if user.Permission != "" {
		err = tx.QueryRowContext(ctx,
			"SELECT description FROM permissions WHERE name = $1", user.Permission,
		).Scan(&permissionDescription)
		if err == sql.ErrNoRows {
			_ = tx.Rollback()
			return "", fmt.Errorf("permission %q: %w", user.Permission, cqrs.ErrNotFound)
		}
		if err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("%w: lookup permission: %v", cqrs.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit: %v", cqrs.ErrStoreUnavailable, err)
	}
	return permissionDescription, nil
}

// publishEvents runs strictly after the commit. Failures degrade to
// projection lag, never to a failed write.
func (s *Service) publishEvents(user models.User, permissionDescription, correlationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.PublishTimeout)
	defer cancel()

	payload := models.UserPayload{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Description: user.Description,
		Permission:  user.Permission,
		CreatedAt:   user.CreatedAt,
	}

	s.publish(ctx, models.EventUserCreated, payload, correlationID)

	if user.Permission != "" {
		payload.PermissionDescription = permissionDescription
		s.publish(ctx, models.EventPermissionUserRelated, payload, correlationID)
	}
}

func (s *Service) publish(ctx context.Context, eventType models.EventType, payload models.UserPayload, correlationID string) {
	event := models.UserEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		EventType:     eventType,
		Timestamp:     time.Now().UTC(),
		Data:          payload,
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Command] Error encoding event: %v correlation_id=%s", err, correlationID)
		return
	}

	if err := s.Publisher.Publish(ctx, string(eventType), body, correlationID); err != nil {
		log.Printf("[Command] Error publishing %s: %v correlation_id=%s — user %s is durable, projection will lag",
			eventType, err, correlationID, payload.ID)
	}
}

func validate(req models.CreateUserRequest) error {
	switch {
	case req.Name == "":
		return fmt.Errorf("name is required: %w", cqrs.ErrValidation)
	case req.Email == "":
		return fmt.Errorf("email is required: %w", cqrs.ErrValidation)
	case req.Description == "":
		return fmt.Errorf("description is required: %w", cqrs.ErrValidation)
	}
	// Permission membership is not checked here: the permissions table is
	// the closed set, and an unknown value fails the in-transaction lookup.
	return nil
}
