package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/service/user"
)

// UserRepo implements user.Repository in memory.
type UserRepo struct{ db *DB }

var _ user.Repository = (*UserRepo)(nil)

func (r *UserRepo) Get(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rec, ok := r.db.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u := rec.user
	return &u, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, rec := range r.db.users {
		if rec.user.Username == username {
			u := rec.user
			return &u, rec.hash, nil
		}
	}
	return nil, "", user.ErrNotFound
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]domain.User, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]domain.User, 0, len(r.db.users))
	for _, rec := range r.db.users {
		out = append(out, rec.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, limit, offset), len(out), nil
}

func (r *UserRepo) Create(_ context.Context, u *domain.User, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rec := range r.db.users {
		if rec.user.Username == u.Username || rec.user.Email == u.Email {
			return user.ErrDuplicate
		}
	}
	r.db.users[u.ID] = userRecord{user: *u, hash: hash}
	return nil
}

func (r *UserRepo) SetRole(_ context.Context, id, role string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	rec.user.RoleName = role
	r.db.users[id] = rec
	return nil
}

func (r *UserRepo) TouchLogin(_ context.Context, id string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	rec.user.LastLoginAt = &at
	r.db.users[id] = rec
	return nil
}
