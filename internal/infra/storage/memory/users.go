package memory

import (
	"context"
	"strings"
	"sync"

	domainuser "geargrab/internal/domain/user"
)

// UserDirectory keeps contact cards in memory. Not suitable for production.
type UserDirectory struct {
	mu   sync.RWMutex
	byID map[domainuser.ID]domainuser.User
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{byID: make(map[domainuser.ID]domainuser.User)}
}

func (r *UserDirectory) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.byID[id]; ok {
		return &user, nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserDirectory) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	if strings.TrimSpace(user.Email) == "" {
		return domainuser.ErrEmailRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = *user
	return nil
}

var _ domainuser.Directory = (*UserDirectory)(nil)
