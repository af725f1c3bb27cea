package cart

import (
	"context"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/domain"
)

const defaultCacheSize = 1024

// Service is the cart query/mutation layer. It alone decides which cart owner
// is authoritative for a session.
type Service struct {
	guest  guestRepo
	server serverCart
	cache  *lru.Cache[string, []domain.CartItem]
	logger *zap.Logger

	mu   sync.Mutex
	keys map[string]*keyState
}

// keyState tracks in-flight work on one cache key. gen moves on every
// invalidation so a read that started earlier cannot repopulate the cache.
type keyState struct {
	gen     uint64
	readers int
	syncing int
}

func New(guest guestRepo, server serverCart, cacheSize int, logger *zap.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, []domain.CartItem](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		guest:  guest,
		server: server,
		cache:  cache,
		logger: logger,
		keys:   make(map[string]*keyState),
	}, nil
}

// Store returns the guest Cart Store for the session's cart key.
func (s *Service) Store(sess auth.Session) *Store {
	return NewStore(s.guest, sess.CartKey())
}

func (s *Service) backendFor(sess auth.Session) Backend {
	if sess.IsAuthenticated() {
		return remoteBackend{client: s.server, token: sess.AuthToken()}
	}
	return localBackend{store: s.Store(sess)}
}

func cacheKey(sess auth.Session) string {
	if sess.IsAuthenticated() {
		return "server:" + sess.AuthToken()
	}
	return "guest:" + sess.CartKey()
}

// GetCart returns the effective cart for the session.
func (s *Service) GetCart(ctx context.Context, sess auth.Session) ([]domain.CartItem, error) {
	key := cacheKey(sess)
	if items, ok := s.cache.Get(key); ok {
		return slices.Clone(items), nil
	}
	gen := s.beginRead(key)
	items, err := s.backendFor(sess).Read(ctx)
	s.endRead(key, gen, items, err == nil)
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

// AddItemToCart appends a product. A product already present in the cart
// yields domain.ErrItemAlreadyExists for guest and server carts alike.
func (s *Service) AddItemToCart(ctx context.Context, sess auth.Session, item domain.CartItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := s.backendFor(sess).Add(ctx, item); err != nil {
		return err
	}
	s.Invalidate(sess)
	s.logger.Debug("cart item added",
		zap.Bool("authenticated", sess.IsAuthenticated()),
		zap.String("item_type", string(item.ItemType)),
		zap.String("item_id", item.ItemID))
	return nil
}

// RemoveItemFromCart removes a line by its cart line id.
func (s *Service) RemoveItemFromCart(ctx context.Context, sess auth.Session, id string) error {
	if id == "" {
		return &domain.ValidationError{Field: "id", Message: "cart item id required"}
	}
	if err := s.backendFor(sess).Remove(ctx, id); err != nil {
		return err
	}
	s.Invalidate(sess)
	return nil
}

// ClearCart empties the guest store after a completed checkout. Server cart
// lines are settled by the backend when the order is paid.
func (s *Service) ClearCart(ctx context.Context, sess auth.Session) error {
	defer s.Invalidate(sess)
	return s.Store(sess).ClearCart(ctx)
}

// Logout tears the guest store down and drops any cached reads.
func (s *Service) Logout(ctx context.Context, sess auth.Session) error {
	defer s.Invalidate(sess)
	return s.Store(sess).Teardown(ctx)
}

// Invalidate drops cached reads for both owners of the session. Reads still
// in flight will not cache their result.
func (s *Service) Invalidate(sess auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(cacheKey(sess.Guest()))
	if sess.IsAuthenticated() {
		s.invalidateLocked(cacheKey(sess))
	}
}

func (s *Service) invalidateLocked(key string) {
	if st, ok := s.keys[key]; ok {
		st.gen++
	}
	s.cache.Remove(key)
}

func (s *Service) stateLocked(key string) *keyState {
	st, ok := s.keys[key]
	if !ok {
		st = &keyState{}
		s.keys[key] = st
	}
	return st
}

func (s *Service) releaseLocked(key string, st *keyState) {
	if st.readers == 0 && st.syncing == 0 {
		delete(s.keys, key)
	}
}

func (s *Service) beginRead(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(key)
	st.readers++
	return st.gen
}

// endRead caches items only when nothing invalidated the key and no sync is
// running since the read began.
func (s *Service) endRead(key string, gen uint64, items []domain.CartItem, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(key)
	if ok && st.gen == gen && st.syncing == 0 {
		s.cache.Add(key, items)
	}
	st.readers--
	s.releaseLocked(key, st)
}

func (s *Service) beginSync(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateLocked(key).syncing++
}

func (s *Service) endSync(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(key)
	st.syncing--
	s.releaseLocked(key, st)
}
