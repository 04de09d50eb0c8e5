package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/platform/database"
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Documents use the same string ids as the Postgres rows so ids stay opaque
// to the rest of the application whichever driver is configured.

type userDocument struct {
	ID             string    `bson:"_id"`
	FullName       string    `bson:"fullName"`
	Username       string    `bson:"username"`
	HashedPassword string    `bson:"password"`
	IsAdmin        bool      `bson:"isAdmin"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func (d userDocument) toModel() model.User {
	return model.User{
		ID:             d.ID,
		FullName:       d.FullName,
		Username:       d.Username,
		HashedPassword: d.HashedPassword,
		IsAdmin:        d.IsAdmin,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(database.UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		ID:             user.ID,
		FullName:       user.FullName,
		Username:       user.Username,
		HashedPassword: user.HashedPassword,
		IsAdmin:        user.IsAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.NewError(common.ErrConflict, "Username already exists")
		}
		return errors.Wrap(err, "mongoUserRepository.Create")
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "mongoUserRepository.FindByUsername", bson.M{"username": username})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "mongoUserRepository.FindByID", bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	return r.findMany(ctx, "mongoUserRepository.FindByIDs", bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (r *mongoUserRepository) FindAdminsByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return []model.User{}, nil
	}
	filter := bson.M{"username": bson.M{"$in": usernames}, "isAdmin": true}
	return r.findMany(ctx, "mongoUserRepository.FindAdminsByUsernames", filter, nil)
}

func (r *mongoUserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	return r.findMany(ctx, "mongoUserRepository.ListAdmins", bson.M{"isAdmin": true}, opts)
}

func (r *mongoUserRepository) findOne(ctx context.Context, op string, filter bson.M) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	u := doc.toModel()
	return &u, nil
}

func (r *mongoUserRepository) findMany(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]model.User, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, op+" find")
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, op+" decode")
	}
	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toModel())
	}
	return users, nil
}

type assignmentDocument struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"userId"`
	Task           string    `bson:"task"`
	AssignedAdmins []string  `bson:"assignedAdmins"`
	Status         string    `bson:"status"`
	Feedback       string    `bson:"feedback,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func newAssignmentDocument(a *model.Assignment) assignmentDocument {
	return assignmentDocument{
		ID:             a.ID,
		UserID:         a.UserID,
		Task:           a.Task,
		AssignedAdmins: append([]string(nil), a.AssignedAdmins...),
		Status:         string(a.Status),
		Feedback:       a.Feedback,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (d assignmentDocument) toModel() model.Assignment {
	return model.Assignment{
		ID:             d.ID,
		UserID:         d.UserID,
		Task:           d.Task,
		AssignedAdmins: d.AssignedAdmins,
		Status:         model.AssignmentStatus(d.Status),
		Feedback:       d.Feedback,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type mongoAssignmentRepository struct {
	coll *mongo.Collection
}

func NewMongoAssignmentRepository(db *mongo.Database) AssignmentRepository {
	return &mongoAssignmentRepository{coll: db.Collection(database.AssignmentsCollection)}
}

func (r *mongoAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, newAssignmentDocument(a)); err != nil {
		return errors.Wrap(err, "mongoAssignmentRepository.Create")
	}
	return nil
}

func (r *mongoAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	var doc assignmentDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, errors.Wrap(err, "mongoAssignmentRepository.FindByID")
	}
	a := doc.toModel()
	return &a, nil
}

func (r *mongoAssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"task":           a.Task,
		"assignedAdmins": a.AssignedAdmins,
		"status":         string(a.Status),
		"feedback":       a.Feedback,
		"updatedAt":      now,
	}}
	res, err := r.coll.UpdateByID(ctx, a.ID, update)
	if err != nil {
		return errors.Wrap(err, "mongoAssignmentRepository.Update")
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	a.UpdatedAt = now
	return nil
}

func (r *mongoAssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "mongoAssignmentRepository.Delete")
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoAssignmentRepository) ListByCreator(ctx context.Context, userID string) ([]model.Assignment, error) {
	return r.list(ctx, "mongoAssignmentRepository.ListByCreator", bson.M{"userId": userID})
}

func (r *mongoAssignmentRepository) ListByAdmin(ctx context.Context, adminID string) ([]model.Assignment, error) {
	// Matching a scalar against an array field selects documents containing it.
	return r.list(ctx, "mongoAssignmentRepository.ListByAdmin", bson.M{"assignedAdmins": adminID})
}

func (r *mongoAssignmentRepository) list(ctx context.Context, op string, filter bson.M) ([]model.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, op+" find")
	}
	var docs []assignmentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, op+" decode")
	}
	out := make([]model.Assignment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

type notificationDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"userId"`
	AssignmentID string    `bson:"assignmentId"`
	EventID      string    `bson:"eventId"`
	Kind         string    `bson:"kind"`
	Message      string    `bson:"message"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type mongoNotificationRepository struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{coll: db.Collection(database.NotificationsCollection)}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	doc := notificationDocument{
		ID:           n.ID,
		UserID:       n.UserID,
		AssignmentID: n.AssignmentID,
		EventID:      n.EventID,
		Kind:         string(n.Kind),
		Message:      n.Message,
		CreatedAt:    n.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return errors.Wrap(err, "mongoNotificationRepository.Create")
	}
	return nil
}

func (r *mongoNotificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongoNotificationRepository.ListByUser find")
	}
	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "mongoNotificationRepository.ListByUser decode")
	}
	out := make([]model.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.Notification{
			ID:           d.ID,
			UserID:       d.UserID,
			AssignmentID: d.AssignmentID,
			EventID:      d.EventID,
			Kind:         model.EventKind(d.Kind),
			Message:      d.Message,
			CreatedAt:    d.CreatedAt,
		})
	}
	return out, nil
}
