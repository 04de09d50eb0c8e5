package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"assignment_desk/internal/platform/database"
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

// Values are stored as JSON under string keys. Buckets are created by
// database.OpenBolt, so a missing bucket is reported as an error.

func bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, errors.Errorf("bucket %s not found", name)
	}
	return b, nil
}

func putJSON[T any](b *bbolt.Bucket, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// getJSON returns common.ErrNotFound when key is absent.
func getJSON[T any](b *bbolt.Bucket, key string) (*T, error) {
	v := b.Get([]byte(key))
	if v == nil {
		return nil, common.ErrNotFound
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// scanJSON decodes every value whose key starts with prefix; an empty prefix
// walks the whole bucket.
func scanJSON[T any](b *bbolt.Bucket, prefix string, keep func(*T) bool) ([]T, error) {
	var out []T
	c := b.Cursor()
	p := []byte(prefix)
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", k)
		}
		if keep == nil || keep(&item) {
			out = append(out, item)
		}
	}
	return out, nil
}

type boltUser struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"password"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (d boltUser) toModel() model.User {
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

type boltUserRepository struct {
	db *bbolt.DB
}

func NewBoltUserRepository(db *bbolt.DB) UserRepository {
	return &boltUserRepository{db: db}
}

func (r *boltUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	err := r.db.Update(func(tx *bbolt.Tx) error {
		names, err := bucket(tx, database.UsernamesBucket)
		if err != nil {
			return err
		}
		if names.Get([]byte(user.Username)) != nil {
			return common.NewError(common.ErrConflict, "Username already exists")
		}
		users, err := bucket(tx, database.UsersBucket)
		if err != nil {
			return err
		}
		doc := boltUser{
			ID:             user.ID,
			FullName:       user.FullName,
			Username:       user.Username,
			HashedPassword: user.HashedPassword,
			IsAdmin:        user.IsAdmin,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := putJSON(users, user.ID, doc); err != nil {
			return err
		}
		return names.Put([]byte(user.Username), []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return err
		}
		return errors.Wrap(err, "boltUserRepository.Create")
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *boltUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		names, err := bucket(tx, database.UsernamesBucket)
		if err != nil {
			return err
		}
		id := names.Get([]byte(username))
		if id == nil {
			return common.ErrNotFound
		}
		user, err = r.get(tx, string(id))
		return err
	})
	if err != nil {
		return nil, r.wrap(err, "boltUserRepository.FindByUsername")
	}
	return user, nil
}

func (r *boltUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user *model.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		var err error
		user, err = r.get(tx, id)
		return err
	})
	if err != nil {
		return nil, r.wrap(err, "boltUserRepository.FindByID")
	}
	return user, nil
}

func (r *boltUserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	out := []model.User{}
	seen := make(map[string]bool, len(ids))
	err := r.db.View(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			u, err := r.get(tx, id)
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, *u)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltUserRepository.FindByIDs")
	}
	return out, nil
}

func (r *boltUserRepository) FindAdminsByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	out := []model.User{}
	seen := make(map[string]bool, len(usernames))
	err := r.db.View(func(tx *bbolt.Tx) error {
		names, err := bucket(tx, database.UsernamesBucket)
		if err != nil {
			return err
		}
		for _, name := range usernames {
			id := names.Get([]byte(name))
			if id == nil || seen[string(id)] {
				continue
			}
			seen[string(id)] = true
			u, err := r.get(tx, string(id))
			if err != nil {
				return err
			}
			if u.IsAdmin {
				out = append(out, *u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltUserRepository.FindAdminsByUsernames")
	}
	return out, nil
}

func (r *boltUserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	var docs []boltUser
	err := r.db.View(func(tx *bbolt.Tx) error {
		users, err := bucket(tx, database.UsersBucket)
		if err != nil {
			return err
		}
		docs, err = scanJSON(users, "", func(d *boltUser) bool { return d.IsAdmin })
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltUserRepository.ListAdmins")
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *boltUserRepository) get(tx *bbolt.Tx, id string) (*model.User, error) {
	users, err := bucket(tx, database.UsersBucket)
	if err != nil {
		return nil, err
	}
	doc, err := getJSON[boltUser](users, id)
	if err != nil {
		return nil, err
	}
	u := doc.toModel()
	return &u, nil
}

func (r *boltUserRepository) wrap(err error, op string) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrNotFound
	}
	return errors.Wrap(err, op)
}

type boltAssignment struct {
	ID             string    `json:"id"`
	Seq            uint64    `json:"seq"`
	UserID         string    `json:"userId"`
	Task           string    `json:"task"`
	AssignedAdmins []string  `json:"assignedAdmins"`
	Status         string    `json:"status"`
	Feedback       string    `json:"feedback,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (d boltAssignment) toModel() model.Assignment {
	return model.Assignment{
		ID:             d.ID,
		UserID:         d.UserID,
		Task:           d.Task,
		AssignedAdmins: append([]string{}, d.AssignedAdmins...),
		Status:         model.AssignmentStatus(d.Status),
		Feedback:       d.Feedback,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type boltAssignmentRepository struct {
	db *bbolt.DB
}

func NewBoltAssignmentRepository(db *bbolt.DB) AssignmentRepository {
	return &boltAssignmentRepository{db: db}
}

func (r *boltAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	now := time.Now().UTC()
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.AssignmentsBucket)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return putJSON(b, a.ID, boltAssignment{
			ID:             a.ID,
			Seq:            seq,
			UserID:         a.UserID,
			Task:           a.Task,
			AssignedAdmins: a.AssignedAdmins,
			Status:         string(a.Status),
			Feedback:       a.Feedback,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	})
	if err != nil {
		return errors.Wrap(err, "boltAssignmentRepository.Create")
	}
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (r *boltAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	var doc *boltAssignment
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.AssignmentsBucket)
		if err != nil {
			return err
		}
		doc, err = getJSON[boltAssignment](b, id)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, errors.Wrap(err, "boltAssignmentRepository.FindByID")
	}
	a := doc.toModel()
	return &a, nil
}

// Update rewrites task, admins, status and feedback. The stored creator and
// creation time are kept.
func (r *boltAssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	now := time.Now().UTC()
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.AssignmentsBucket)
		if err != nil {
			return err
		}
		doc, err := getJSON[boltAssignment](b, a.ID)
		if err != nil {
			return err
		}
		doc.Task = a.Task
		doc.AssignedAdmins = a.AssignedAdmins
		doc.Status = string(a.Status)
		doc.Feedback = a.Feedback
		doc.UpdatedAt = now
		return putJSON(b, a.ID, *doc)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return errors.Wrap(err, "boltAssignmentRepository.Update")
	}
	a.UpdatedAt = now
	return nil
}

func (r *boltAssignmentRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.AssignmentsBucket)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return common.ErrNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return errors.Wrap(err, "boltAssignmentRepository.Delete")
	}
	return nil
}

func (r *boltAssignmentRepository) ListByCreator(ctx context.Context, userID string) ([]model.Assignment, error) {
	return r.list("boltAssignmentRepository.ListByCreator", func(d *boltAssignment) bool { return d.UserID == userID })
}

func (r *boltAssignmentRepository) ListByAdmin(ctx context.Context, adminID string) ([]model.Assignment, error) {
	return r.list("boltAssignmentRepository.ListByAdmin", func(d *boltAssignment) bool {
		for _, id := range d.AssignedAdmins {
			if id == adminID {
				return true
			}
		}
		return false
	})
}

// list returns matching assignments newest first.
func (r *boltAssignmentRepository) list(op string, keep func(*boltAssignment) bool) ([]model.Assignment, error) {
	var docs []boltAssignment
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.AssignmentsBucket)
		if err != nil {
			return err
		}
		docs, err = scanJSON(b, "", keep)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].Seq > docs[j].Seq
	})
	out := make([]model.Assignment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

type boltNotification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	AssignmentID string    `json:"assignmentId"`
	EventID      string    `json:"eventId"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

type boltNotificationRepository struct {
	db *bbolt.DB
}

func NewBoltNotificationRepository(db *bbolt.DB) NotificationRepository {
	return &boltNotificationRepository{db: db}
}

// Create keys notifications by userId:eventId, so a repeated delivery of the
// same event finds the existing key and does nothing.
func (r *boltNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.NotificationsBucket)
		if err != nil {
			return err
		}
		key := n.UserID + ":" + n.EventID
		if b.Get([]byte(key)) != nil {
			return nil
		}
		return putJSON(b, key, boltNotification{
			ID:           n.ID,
			UserID:       n.UserID,
			AssignmentID: n.AssignmentID,
			EventID:      n.EventID,
			Kind:         string(n.Kind),
			Message:      n.Message,
			CreatedAt:    n.CreatedAt,
		})
	})
	return errors.Wrap(err, "boltNotificationRepository.Create")
}

func (r *boltNotificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var docs []boltNotification
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, database.NotificationsBucket)
		if err != nil {
			return err
		}
		docs, err = scanJSON[boltNotification](b, userID+":", nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "boltNotificationRepository.ListByUser")
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
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
