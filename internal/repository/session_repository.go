package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkalandia/chatlink/internal/session"
)

type gormSessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) session.Store {
	return &gormSessionStore{db: db}
}

func (r *gormSessionStore) Load(ctx context.Context) (*session.Session, error) {
	var models []SessionSlotModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	slots := make(map[string]string, len(models))
	for _, m := range models {
		slots[m.Key] = m.Value
	}

	s := &session.Session{
		Username: slots[slotKeyUser],
		Token:    slots[slotKeyToken],
		ClientID: slots[slotKeyClientID],
	}
	if !s.Valid() {
		return nil, nil
	}
	return s, nil
}

func (r *gormSessionStore) Save(ctx context.Context, s *session.Session) error {
	models := []SessionSlotModel{
		{Key: slotKeyUser, Value: s.Username},
		{Key: slotKeyToken, Value: s.Token},
		{Key: slotKeyClientID, Value: s.ClientID},
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&models).Error
}

func (r *gormSessionStore) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&SessionSlotModel{}).Error
}
