package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/ordermeow/ordermeow/internal/server/repositories/orders"
	"github.com/ordermeow/ordermeow/internal/server/repositories/refreshtokens"
	"github.com/ordermeow/ordermeow/internal/server/repositories/users"
)

// memStore is an in-memory credential and order store. Transactions run one
// at a time under mu, which makes them trivially serializable; a failed
// transaction restores the snapshot taken when it began.
type memStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.User
	tokens map[uuid.UUID]models.RefreshToken
	orders map[uuid.UUID]models.Order

	// writes counts every mutating repository call, committed or not.
	writes int

	createUserErr error
	revokeHook    func(id uuid.UUID) error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[uuid.UUID]models.User{},
		tokens: map[uuid.UUID]models.RefreshToken{},
		orders: map[uuid.UUID]models.Order{},
	}
}

// memTx marks a handle that runs inside memTxRunner and already holds mu.
type memTx struct{ dbx.DBTX }

type memTxRunner struct {
	s       *memStore
	commits int
	rolls   int
}

func (r *memTxRunner) RunInTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users, tokens, ords := r.s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			r.s.restore(users, tokens, ords)
			r.rolls++
			panic(p)
		}
		if err != nil {
			r.s.restore(users, tokens, ords)
			r.rolls++
			return
		}
		r.commits++
	}()

	return fn(ctx, memTx{})
}

func (s *memStore) snapshot() (map[uuid.UUID]models.User, map[uuid.UUID]models.RefreshToken, map[uuid.UUID]models.Order) {
	u := make(map[uuid.UUID]models.User, len(s.users))
	for k, v := range s.users {
		u[k] = v
	}
	t := make(map[uuid.UUID]models.RefreshToken, len(s.tokens))
	for k, v := range s.tokens {
		t[k] = v
	}
	o := make(map[uuid.UUID]models.Order, len(s.orders))
	for k, v := range s.orders {
		o[k] = v
	}
	return u, t, o
}

func (s *memStore) restore(u map[uuid.UUID]models.User, t map[uuid.UUID]models.RefreshToken, o map[uuid.UUID]models.Order) {
	s.users, s.tokens, s.orders = u, t, o
}

// lock takes mu unless db is a transactional handle, which already holds it.
func (s *memStore) lock(db dbx.DBTX) func() {
	if _, ok := db.(memTx); ok {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) activeTokens(userID uuid.UUID, now time.Time) []models.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.IsActive(now) {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) users.Repository            { return &memUsers{s: m.s, db: db} }
func (m *memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return &memTokens{s: m.s, db: db}
}
func (m *memRepoManager) Orders(db dbx.DBTX) orders.Repository { return &memOrders{s: m.s, db: db} }

type memUsers struct {
	s  *memStore
	db dbx.DBTX
}

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	if r.s.createUserErr != nil {
		return r.s.createUserErr
	}
	for _, existing := range r.s.users {
		if existing.UserName == u.UserName {
			return common.ErrorConflict
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	defer r.s.lock(r.db)()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *memUsers) GetByUserName(_ context.Context, name string) (*models.User, error) {
	defer r.s.lock(r.db)()
	for _, u := range r.s.users {
		if u.UserName == name {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) UpdateRole(_ context.Context, id uuid.UUID, role models.Role) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

type memTokens struct {
	s  *memStore
	db dbx.DBTX
}

func (r *memTokens) Create(_ context.Context, t *models.RefreshToken) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	for _, existing := range r.s.tokens {
		if existing.Token == t.Token {
			return common.ErrorConflict
		}
	}
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *memTokens) FindForUpdate(_ context.Context, token string, userID uuid.UUID) (*models.RefreshToken, error) {
	defer r.s.lock(r.db)()
	for _, t := range r.s.tokens {
		if t.Token == token && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memTokens) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	if r.s.revokeHook != nil {
		if err := r.s.revokeHook(id); err != nil {
			return err
		}
	}
	t, ok := r.s.tokens[id]
	if !ok || t.RevokedAt != nil {
		return common.ErrorNotFound
	}
	t.RevokedAt = &at
	r.s.tokens[id] = t
	return nil
}

func (r *memTokens) RevokeAllForUser(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	defer r.s.lock(r.db)()
	r.s.writes++
	var n int64
	for id, t := range r.s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
			r.s.tokens[id] = t
			n++
		}
	}
	return n, nil
}

type memOrders struct {
	s  *memStore
	db dbx.DBTX
}

func (r *memOrders) Create(_ context.Context, o *models.Order) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	r.s.orders[o.ID] = *o
	return nil
}

func (r *memOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Order, error) {
	defer r.s.lock(r.db)()
	out := make([]*models.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memOrders) Get(_ context.Context, id, userID uuid.UUID) (*models.Order, error) {
	defer r.s.lock(r.db)()
	o, ok := r.s.orders[id]
	if !ok || o.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &o, nil
}

func (r *memOrders) Update(_ context.Context, o *models.Order) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	cur, ok := r.s.orders[o.ID]
	if !ok || cur.UserID != o.UserID {
		return common.ErrorNotFound
	}
	cur.Title, cur.Description = o.Title, o.Description
	r.s.orders[o.ID] = cur
	return nil
}

func (r *memOrders) Delete(_ context.Context, id, userID uuid.UUID) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	cur, ok := r.s.orders[id]
	if !ok || cur.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.orders, id)
	return nil
}

func (r *memOrders) SetStatus(_ context.Context, id, userID uuid.UUID, status models.OrderStatus) error {
	defer r.s.lock(r.db)()
	r.s.writes++
	cur, ok := r.s.orders[id]
	if !ok || cur.UserID != userID {
		return common.ErrorNotFound
	}
	cur.Status = status
	r.s.orders[id] = cur
	return nil
}
