// Package projection applies domain events to the denormalized read models.
// Handlers are safe under duplicate and out-of-order delivery: every event
// carries its full payload and every store mutation is idempotent.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ViewStore is the read-model store the projections write into.
type ViewStore interface {
	// UpsertUser replaces the user view keyed by id, creating it if absent.
	UpsertUser(ctx context.Context, view models.UserView) error
	// EnsureGroup creates the permission group document if absent. An
	// existing group keeps its description.
	EnsureGroup(ctx context.Context, permission, description string) error
	// AddGroupMember appends the snapshot unless a member with that user id
	// already exists.
	AddGroupMember(ctx context.Context, permission string, member models.UserView) error
}

// Handler projects user events into the view store.
type Handler struct {
	Store ViewStore

	// StoreTimeout bounds each store round-trip.
	StoreTimeout time.Duration
}

// NewHandler creates a projection handler.
func NewHandler(store ViewStore) *Handler {
	return &Handler{Store: store, StoreTimeout: 5 * time.Second}
}

// HandleMessage processes one delivered event. A returned error nacks the
// delivery so the bus can redeliver it; it never propagates further, so one
// bad event cannot take the consumer down or block the next delivery.
func (h *Handler) HandleMessage(delivery amqp.Delivery) error {
	var event models.UserEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		log.Printf("[Projection] Failed to unmarshal event: %v correlation_id=%s", err, delivery.CorrelationId)
		return fmt.Errorf("%w: decode event: %v", cqrs.ErrProjection, err)
	}

	log.Printf("[Projection] Processing event: type=%s event_id=%s correlation_id=%s user_id=%s",
		event.EventType, event.EventID, event.CorrelationID, event.Data.ID)

	ctx, cancel := context.WithTimeout(context.Background(), h.StoreTimeout)
	defer cancel()

	switch event.EventType {
	case models.EventUserCreated:
		return h.userCreated(ctx, event)
	case models.EventPermissionUserRelated:
		return h.permissionUserRelated(ctx, event)
	default:
		log.Printf("[Projection] Ignoring unknown event type: %s event_id=%s", event.EventType, event.EventID)
		return nil
	}
}

func (h *Handler) userCreated(ctx context.Context, event models.UserEvent) error {
	if err := h.Store.UpsertUser(ctx, event.Data.View()); err != nil {
		log.Printf("[Projection] Error upserting user view: %v correlation_id=%s", err, event.CorrelationID)
		return fmt.Errorf("%w: upsert user %s: %v", cqrs.ErrProjection, event.Data.ID, err)
	}

	log.Printf("[Projection] User view updated: id=%s correlation_id=%s", event.Data.ID, event.CorrelationID)
	return nil
}

func (h *Handler) permissionUserRelated(ctx context.Context, event models.UserEvent) error {
	if err := h.Store.EnsureGroup(ctx, event.Data.Permission, event.Data.PermissionDescription); err != nil {
		log.Printf("[Projection] Error ensuring group: %v correlation_id=%s", err, event.CorrelationID)
		return fmt.Errorf("%w: ensure group %s: %v", cqrs.ErrProjection, event.Data.Permission, err)
	}

	if err := h.Store.AddGroupMember(ctx, event.Data.Permission, event.Data.View()); err != nil {
		log.Printf("[Projection] Error adding group member: %v correlation_id=%s", err, event.CorrelationID)
		return fmt.Errorf("%w: add member %s to group %s: %v",
			cqrs.ErrProjection, event.Data.ID, event.Data.Permission, err)
	}

	log.Printf("[Projection] Group membership updated: permission=%s user_id=%s correlation_id=%s",
		event.Data.Permission, event.Data.ID, event.CorrelationID)
	return nil
}
