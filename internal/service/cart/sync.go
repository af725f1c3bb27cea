package cart

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sprouting-academy/internal/auth"
	"sprouting-academy/internal/domain"
)

// SyncCartOnLogin imports the guest cart into the server cart right after a
// successful login. The cart cache is invalidated whatever the outcome.
func (s *Service) SyncCartOnLogin(ctx context.Context, sess auth.Session) error {
	key := cacheKey(sess)
	s.beginSync(key)
	defer func() {
		s.endSync(key)
		s.Invalidate(sess)
	}()

	store := s.Store(sess)
	local, err := store.Items(ctx)
	if err != nil {
		return err
	}
	return s.syncItems(ctx, sess, local, store.ClearCart)
}

// syncItems adds every local line whose product is not yet on the server,
// ignoring per-line failures, then clears the local store. A failed server
// read leaves the local store untouched.
func (s *Service) syncItems(ctx context.Context, sess auth.Session, localItems []domain.CartItem, clearLocal func(context.Context) error) error {
	if !sess.IsAuthenticated() {
		return nil
	}
	token := sess.AuthToken()

	entries, err := s.server.GetCart(ctx, token)
	if err != nil {
		return err
	}
	serverProductIDs := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		serverProductIDs[e.ProductID] = struct{}{}
	}

	var localOnly []domain.CartItem
	for _, it := range localItems {
		if _, ok := serverProductIDs[it.ItemID]; !ok {
			localOnly = append(localOnly, it)
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		failed  error
		skipped int
	)
	for _, it := range localOnly {
		wg.Add(1)
		go func(it domain.CartItem) {
			defer wg.Done()
			if err := s.server.AddCartItem(ctx, token, it.ItemID, it.ItemType); err != nil {
				mu.Lock()
				failed = multierr.Append(failed, err)
				skipped++
				mu.Unlock()
			}
		}(it)
	}
	wg.Wait()

	if failed != nil {
		s.logger.Warn("guest cart lines not imported",
			zap.Int("failed", skipped), zap.Int("attempted", len(localOnly)), zap.Error(failed))
	}

	if err := clearLocal(ctx); err != nil {
		s.logger.Warn("clear guest cart after sync", zap.String("cart_key", sess.CartKey()), zap.Error(err))
	}
	return nil
}
