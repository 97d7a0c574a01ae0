package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

type GormAccountStore struct {
	DB *gorm.DB
}

// NewGormAccountStore migrates the accounts table and returns a store over it.
func NewGormAccountStore(db *gorm.DB) (*GormAccountStore, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, err
	}
	return &GormAccountStore{DB: db}, nil
}

func (s *GormAccountStore) Create(ctx context.Context, account *Account) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Account{}).Where("email = ?", account.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}
	err := s.DB.WithContext(ctx).Create(account).Error
	if err != nil && strings.Contains(err.Error(), "Duplicate entry") {
		return ErrEmailTaken
	}
	return err
}

func (s *GormAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *GormAccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := s.DB.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

type MemoryAccountStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byEmail map[string]string
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryAccountStore) Create(ctx context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[account.Email]; ok {
		return ErrEmailTaken
	}
	now := time.Now()
	stored := *account
	stored.CreatedAt, stored.UpdatedAt = now, now
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	return nil
}

func (s *MemoryAccountStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := *s.byID[id]
	return &account, nil
}

func (s *MemoryAccountStore) FindByID(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := *a
	return &account, nil
}
