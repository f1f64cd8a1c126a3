package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ngimbabet/predictions-backend/internal/models"
)

const authEventsChannel = "auth:events"

var orderFieldPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// GormStore persists records in Postgres and broadcasts change notifications
// over Redis pub/sub. Every notification triggers a full ordered re-query so
// subscribers always receive a complete replacement snapshot.
type GormStore struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewGormStore(db *gorm.DB, rdb *redis.Client) *GormStore {
	return &GormStore{db: db, rdb: rdb}
}

func (s *GormStore) GetProfile(ctx context.Context, identityID string) (Fields, error) {
	var rec ProfileRecord
	if err := s.db.WithContext(ctx).First(&rec, "identity_id = ?", identityID).Error; err != nil {
		return nil, classify(err)
	}
	return docFields(rec.Doc, identityID)
}

func (s *GormStore) CreateProfileIfAbsent(ctx context.Context, identityID string, defaults Fields) (bool, error) {
	doc, err := fieldsDoc(defaults)
	if err != nil {
		return false, err
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ProfileRecord{IdentityID: identityID, Doc: doc})
	if result.Error != nil {
		return false, classify(result.Error)
	}

	created := result.RowsAffected > 0
	if created {
		s.notify(ctx, CollectionUsers, identityID)
	}
	return created, nil
}

func (s *GormStore) UpdateProfile(ctx context.Context, identityID string, fields Fields) error {
	doc, err := fieldsDoc(fields)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&ProfileRecord{}).
		Where("identity_id = ?", identityID).
		Update("doc", gorm.Expr("doc || ?", doc))
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, CollectionUsers, identityID)
	return nil
}

func (s *GormStore) AddRecord(ctx context.Context, collection string, fields Fields) (string, error) {
	doc, err := fieldsDoc(fields)
	if err != nil {
		return "", err
	}

	rec := Record{ID: uuid.New(), Collection: collection, Doc: doc}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", classify(err)
	}

	s.notify(ctx, collection, rec.ID.String())
	return rec.ID.String(), nil
}

func (s *GormStore) UpdateRecord(ctx context.Context, collection, id string, fields Fields) error {
	doc, err := fieldsDoc(fields)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&Record{}).
		Where("id = ? AND collection = ?", id, collection).
		Update("doc", gorm.Expr("doc || ?", doc))
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection, id)
	return nil
}

func (s *GormStore) DeleteRecord(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, collection).
		Delete(&Record{})
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection, id)
	return nil
}

func (s *GormStore) SubscribeCollection(name, orderField string, descending bool, cb func(Snapshot)) (Unsubscribe, error) {
	if !orderFieldPattern.MatchString(orderField) {
		return nil, fmt.Errorf("invalid order field %q", orderField)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := s.rdb.Subscribe(ctx, "stream:"+name)

	go func() {
		s.push(ctx, name, orderField, descending, cb)
		for range sub.Channel() {
			s.push(ctx, name, orderField, descending, cb)
		}
	}()

	return func() {
		cancel()
		if err := sub.Close(); err != nil {
			slog.Warn("collection unsubscribe failed", "collection", name, "error", err)
		}
	}, nil
}

func (s *GormStore) OnAuthChange(cb func(models.AuthEvent)) (Unsubscribe, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := s.rdb.Subscribe(ctx, authEventsChannel)

	go func() {
		for msg := range sub.Channel() {
			var ev models.AuthEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Error("malformed auth event", "error", err)
				continue
			}
			cb(ev)
		}
	}()

	return func() {
		cancel()
		if err := sub.Close(); err != nil {
			slog.Warn("auth unsubscribe failed", "error", err)
		}
	}, nil
}

func (s *GormStore) PublishAuthChange(ctx context.Context, ev models.AuthEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, authEventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// push re-queries the full ordered collection and delivers it. On query
// failure the push is skipped so consumers keep their last-known-good state.
func (s *GormStore) push(ctx context.Context, name, orderField string, descending bool, cb func(Snapshot)) {
	snapshot, err := s.snapshot(ctx, name, orderField, descending)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("snapshot query failed", "collection", name, "error", err)
		}
		return
	}
	cb(snapshot)
}

func (s *GormStore) snapshot(ctx context.Context, name, orderField string, descending bool) (Snapshot, error) {
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	// orderField is validated against orderFieldPattern at subscribe time.
	order := fmt.Sprintf("doc->>'%s' %s", orderField, dir)

	if name == CollectionUsers {
		var recs []ProfileRecord
		if err := s.db.WithContext(ctx).Order(order).Find(&recs).Error; err != nil {
			return nil, classify(err)
		}
		snapshot := make(Snapshot, 0, len(recs))
		for _, rec := range recs {
			f, err := docFields(rec.Doc, rec.IdentityID)
			if err != nil {
				return nil, err
			}
			snapshot = append(snapshot, f)
		}
		return snapshot, nil
	}

	var recs []Record
	if err := s.db.WithContext(ctx).Where("collection = ?", name).Order(order).Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	snapshot := make(Snapshot, 0, len(recs))
	for _, rec := range recs {
		f, err := docFields(rec.Doc, rec.ID.String())
		if err != nil {
			return nil, err
		}
		snapshot = append(snapshot, f)
	}
	return snapshot, nil
}

func (s *GormStore) notify(ctx context.Context, collection, id string) {
	if err := s.rdb.Publish(ctx, "stream:"+collection, id).Err(); err != nil {
		slog.Warn("change notification failed", "collection", collection, "id", id, "error", err)
	}
}

func fieldsDoc(fields Fields) (datatypes.JSON, error) {
	clean := make(Fields, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		clean[k] = v
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return datatypes.JSON(b), nil
}

func docFields(doc datatypes.JSON, id string) (Fields, error) {
	f := Fields{}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &f); err != nil {
			return nil, fmt.Errorf("decode record doc: %w", err)
		}
	}
	f["id"] = id
	return f, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
