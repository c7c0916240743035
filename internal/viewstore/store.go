// Package viewstore is the MongoDB-backed read-model store. It owns the
// derived collections; nothing here is authoritative, and both collections
// can be dropped and rebuilt by replaying events.
package viewstore

import (
	"context"
	"fmt"

	"github.com/viniciusfeitosa/europython2018/pkg/cqrs"
	"github.com/viniciusfeitosa/europython2018/pkg/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection  = "users"
	groupsCollection = "permission_groups"
)

// Store provides access to the read-model collections.
type Store struct {
	users  *mongo.Collection
	groups *mongo.Collection
}

// New creates a view store over the given database.
func New(db *mongo.Database) *Store {
	return &Store{
		users:  db.Collection(usersCollection),
		groups: db.Collection(groupsCollection),
	}
}

// UpsertUser replaces the user view keyed by id. Replacing with identical
// fields makes redelivery a no-op.
func (s *Store) UpsertUser(ctx context.Context, view models.UserView) error {
	filter := bson.M{"_id": view.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := s.users.ReplaceOne(ctx, filter, view, opts)
	return err
}

// EnsureGroup creates the permission group document if absent. $setOnInsert
// keeps an existing group's description and members untouched.
func (s *Store) EnsureGroup(ctx context.Context, permission, description string) error {
	filter := bson.M{"_id": permission}
	update := bson.M{
		"$setOnInsert": bson.M{
			"description": description,
			"users":       bson.A{},
		},
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.groups.UpdateOne(ctx, filter, update, opts)
	return err
}

// AddGroupMember appends the snapshot unless a member with that user id is
// already embedded. The $ne guard in the filter makes duplicate delivery
// match zero documents, so membership stays unique without a read first.
func (s *Store) AddGroupMember(ctx context.Context, permission string, member models.UserView) error {
	filter := bson.M{
		"_id":       permission,
		"users._id": bson.M{"$ne": member.ID},
	}
	update := bson.M{"$push": bson.M{"users": member}}
	_, err := s.groups.UpdateOne(ctx, filter, update)
	return err
}

// GetUser returns the user view for id.
func (s *Store) GetUser(ctx context.Context, id string) (models.UserView, error) {
	var view models.UserView
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&view)
	if err == mongo.ErrNoDocuments {
		return models.UserView{}, fmt.Errorf("user %q: %w", id, cqrs.ErrNotFound)
	}
	if err != nil {
		return models.UserView{}, fmt.Errorf("%w: get user: %v", cqrs.ErrStoreUnavailable, err)
	}
	return view, nil
}

// ListUsers returns a stable window of user views. Sorting by created_at
// with _id as tiebreak keeps repeated reads of an unchanged store identical.
func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]models.UserView, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := s.users.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", cqrs.ErrStoreUnavailable, err)
	}
	defer cursor.Close(ctx)

	views := []models.UserView{}
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("%w: decode users: %v", cqrs.ErrStoreUnavailable, err)
	}
	return views, nil
}

// GetGroup returns the permission group view for the permission name.
func (s *Store) GetGroup(ctx context.Context, permission string) (models.PermissionGroupView, error) {
	var group models.PermissionGroupView
	err := s.groups.FindOne(ctx, bson.M{"_id": permission}).Decode(&group)
	if err == mongo.ErrNoDocuments {
		return models.PermissionGroupView{}, fmt.Errorf("permission group %q: %w", permission, cqrs.ErrNotFound)
	}
	if err != nil {
		return models.PermissionGroupView{}, fmt.Errorf("%w: get group: %v", cqrs.ErrStoreUnavailable, err)
	}
	return group, nil
}
