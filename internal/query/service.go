package query

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bankdash/internal/bank"
	"bankdash/internal/cache"
	"bankdash/internal/core"
	"bankdash/internal/events"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

// ErrStaleWrite marks a response that lost to a newer request or an
// invalidation for the same key. It is informational: the caller still
// receives the data, the cache just keeps the newer state.
var ErrStaleWrite = errors.New("superseded response discarded")

// minSearchTermLength short-circuits searches to an empty result
// without touching the bank API.
const minSearchTermLength = 2

// Config carries the per-operation staleness windows and retry budget.
type Config struct {
	AccountsTTL     time.Duration
	TransactionsTTL time.Duration
	AnalyticsTTL    time.Duration
	RatesTTL        time.Duration
	SearchTTL       time.Duration

	// FetchTimeout bounds each individual attempt against the bank API.
	FetchTimeout time.Duration

	// ReadAttempts and MutationAttempts are total tries, not extra
	// retries. Only transient transport failures are retried.
	ReadAttempts     int
	MutationAttempts int

	// RatesRefreshInterval drives the background exchange-rate refresh;
	// zero disables it.
	RatesRefreshInterval time.Duration

	CacheSize int
}

func DefaultConfig() Config {
	return Config{
		AccountsTTL:          5 * time.Minute,
		TransactionsTTL:      30 * time.Second,
		AnalyticsTTL:         10 * time.Minute,
		RatesTTL:             time.Minute,
		SearchTTL:            30 * time.Second,
		FetchTimeout:         10 * time.Second,
		ReadAttempts:         2,
		MutationAttempts:     1,
		RatesRefreshInterval: 30 * time.Second,
		CacheSize:            256,
	}
}

// Invalidation names the operation families whose cached state was just
// marked stale.
type Invalidation struct {
	Ops []string
}

// Service bridges the bank API and the session store behind
// per-operation caches with request dedup, bounded retries and
// mutation-driven invalidation.
type Service struct {
	cfg    Config
	bank   bank.Client
	sess   *session.Store
	pub    events.Publisher
	logger *log.Logger

	accounts     *cache.LRUCache[[]core.Account]
	account      *cache.LRUCache[core.Account]
	transactions *cache.LRUCache[core.TransactionPage]
	transaction  *cache.LRUCache[core.Transaction]
	analytics    *cache.LRUCache[core.Analytics]
	search       *cache.LRUCache[[]core.Transaction]
	rates        *cache.LRUCache[core.ExchangeRates]

	flights singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
	subs []func(Invalidation)

	stopRates chan struct{}
	ratesDone chan struct{}
	closeOnce sync.Once
}

type Option func(*Service)

// WithPublisher wires an event publisher; successful transfers are
// announced on it for downstream consumers.
func WithPublisher(pub events.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func NewService(cfg Config, client bank.Client, sess *session.Store, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Service{
		cfg:    cfg,
		bank:   client,
		sess:   sess,
		logger: logger.WithComponent("query"),

		accounts:     cache.NewLRU[[]core.Account](cfg.CacheSize, cfg.AccountsTTL),
		account:      cache.NewLRU[core.Account](cfg.CacheSize, cfg.AccountsTTL),
		transactions: cache.NewLRU[core.TransactionPage](cfg.CacheSize, cfg.TransactionsTTL),
		transaction:  cache.NewLRU[core.Transaction](cfg.CacheSize, cfg.TransactionsTTL),
		analytics:    cache.NewLRU[core.Analytics](cfg.CacheSize, cfg.AnalyticsTTL),
		search:       cache.NewLRU[[]core.Transaction](cfg.CacheSize, cfg.SearchTTL),
		rates:        cache.NewLRU[core.ExchangeRates](cfg.CacheSize, cfg.RatesTTL),

		gens:      make(map[string]uint64),
		stopRates: make(chan struct{}),
		ratesDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.RatesRefreshInterval > 0 {
		go s.refreshRatesLoop()
	} else {
		close(s.ratesDone)
	}
	return s
}

// RegisterCaches attaches every typed cache to the manager's periodic
// cleanup.
func (s *Service) RegisterCaches(m *cache.Manager) {
	m.Register(s.accounts)
	m.Register(s.account)
	m.Register(s.transactions)
	m.Register(s.transaction)
	m.Register(s.analytics)
	m.Register(s.search)
	m.Register(s.rates)
}

// Subscribe registers a callback invoked after every invalidation.
func (s *Service) Subscribe(fn func(Invalidation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Close stops the background rate refresh.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.stopRates)
	})
	<-s.ratesDone
}

// -- Reads --

func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	return fetchCached(ctx, s, s.accounts, "accounts", func(ctx context.Context) ([]core.Account, error) {
		return s.bank.Accounts(ctx)
	})
}

func (s *Service) Account(ctx context.Context, id string) (core.Account, error) {
	return fetchCached(ctx, s, s.account, "accounts:"+id, func(ctx context.Context) (core.Account, error) {
		return s.bank.Account(ctx, id)
	})
}

func (s *Service) Transactions(ctx context.Context, filters core.TransactionFilters) (core.TransactionPage, error) {
	key := "transactions:" + filterKey(filters)
	return fetchCached(ctx, s, s.transactions, key, func(ctx context.Context) (core.TransactionPage, error) {
		return s.bank.Transactions(ctx, filters)
	})
}

func (s *Service) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	return fetchCached(ctx, s, s.transaction, "transactions:id:"+id, func(ctx context.Context) (core.Transaction, error) {
		return s.bank.Transaction(ctx, id)
	})
}

func (s *Service) Analytics(ctx context.Context, period core.Period) (core.Analytics, error) {
	return fetchCached(ctx, s, s.analytics, "analytics:"+string(period), func(ctx context.Context) (core.Analytics, error) {
		return s.bank.Analytics(ctx, period)
	})
}

// SearchTransactions returns an empty result for terms shorter than two
// characters without calling the bank API at all.
func (s *Service) SearchTransactions(ctx context.Context, term string) ([]core.Transaction, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < minSearchTermLength {
		return []core.Transaction{}, nil
	}
	key := "search:" + strings.ToLower(term)
	return fetchCached(ctx, s, s.search, key, func(ctx context.Context) ([]core.Transaction, error) {
		return s.bank.SearchTransactions(ctx, term)
	})
}

func (s *Service) ExchangeRates(ctx context.Context) (core.ExchangeRates, error) {
	return fetchCached(ctx, s, s.rates, "rates", func(ctx context.Context) (core.ExchangeRates, error) {
		return s.bank.ExchangeRates(ctx)
	})
}

// -- Stale fallbacks --
// After a terminal fetch failure callers may prefer the last known
// value over an error state; these accessors expose it without
// freshness guarantees.

func (s *Service) CachedAccounts() ([]core.Account, bool) {
	return s.accounts.GetStale("accounts")
}

func (s *Service) CachedTransactions(filters core.TransactionFilters) (core.TransactionPage, bool) {
	return s.transactions.GetStale("transactions:" + filterKey(filters))
}

func (s *Service) CachedAnalytics(period core.Period) (core.Analytics, bool) {
	return s.analytics.GetStale("analytics:" + string(period))
}

// -- Mutations --

// CreateTransfer submits a transfer and, on success, marks every
// transaction, account and analytics cache entry stale so the next read
// refetches.
func (s *Service) CreateTransfer(ctx context.Context, form core.TransferForm) (core.Transaction, error) {
	if err := form.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx, err := callWithRetry(ctx, s, "create transfer", s.cfg.MutationAttempts, func(ctx context.Context) (core.Transaction, error) {
		return s.bank.CreateTransfer(ctx, form)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.invalidate("transactions", "accounts", "analytics")
	s.logger.InfoContext(ctx, "Transfer created",
		log.FieldTransferID, tx.ID,
		log.FieldAccountID, tx.AccountID)

	if s.pub != nil {
		// Publishing is best effort; the transfer already succeeded.
		if err := s.pub.PublishTransferCreated(ctx, events.NewTransferCreatedMessage(tx)); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish transfer event",
				log.FieldTransferID, tx.ID, log.FieldError, err)
		}
	}
	return tx, nil
}

// UpdateProfile replaces the profile and pushes the fresh user into the
// session store.
func (s *Service) UpdateProfile(ctx context.Context, update core.ProfileUpdate) (core.User, error) {
	user, err := callWithRetry(ctx, s, "update profile", s.cfg.MutationAttempts, func(ctx context.Context) (core.User, error) {
		return s.bank.UpdateProfile(ctx, update)
	})
	if err != nil {
		return core.User{}, err
	}

	if s.sess != nil {
		if err := s.sess.SetUser(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "Profile updated but session not refreshed", log.FieldError, err)
		}
	}
	s.invalidate("user")
	return user, nil
}

// -- Internals --

type flightResult[T any] struct {
	data  T
	stale bool
}

// fetchCached serves key from the cache, deduplicates concurrent misses
// into a single bank call and applies the response only if the key was
// not superseded while the call was in flight.
func fetchCached[T any](ctx context.Context, s *Service, c *cache.LRUCache[T], key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := s.flights.DoChan(key, func() (any, error) {
		gen := s.beginFlight(key)

		// Detached from the caller: a consumer that stops awaiting must
		// not abort work other consumers of the key will share.
		data, err := doAttempts(context.WithoutCancel(ctx), s, key, s.cfg.ReadAttempts, load)
		if err != nil {
			// The previous cached value, if any, stays untouched for
			// fallback reads.
			return nil, err
		}

		if !s.flightCurrent(key, gen) {
			s.logger.DebugContext(ctx, "Discarding superseded response",
				log.FieldCacheKey, key, log.FieldError, ErrStaleWrite)
			return flightResult[T]{data: data, stale: true}, nil
		}
		c.Set(key, data)
		return flightResult[T]{data: data}, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(flightResult[T]).data, nil
	}
}

// callWithRetry is the mutation path: no cache, no dedup, same timeout
// and transient-retry policy.
func callWithRetry[T any](ctx context.Context, s *Service, op string, attempts int, call func(context.Context) (T, error)) (T, error) {
	return doAttempts(ctx, s, op, attempts, call)
}

func doAttempts[T any](ctx context.Context, s *Service, key string, attempts int, call func(context.Context) (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var data T
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		data, err = call(attemptCtx)
		cancel()

		if err == nil || !bank.IsTransient(err) || attempt == attempts {
			break
		}
		s.logger.WarnContext(ctx, "Retrying after transient failure",
			log.FieldOperation, key,
			log.FieldAttempt, attempt,
			log.FieldError, err)
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return data, err
}

// beginFlight records the key's generation at issue time. Invalidations
// advance the generation, which makes older in-flight responses lose.
func (s *Service) beginFlight(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.gens[key]
	s.gens[key] = gen
	return gen
}

func (s *Service) flightCurrent(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key] == gen
}

var invalidators = map[string]func(*Service) int{
	"transactions": func(s *Service) int {
		n := s.transactions.InvalidatePrefix("transactions:")
		return n + s.transaction.InvalidatePrefix("transactions:")
	},
	"accounts": func(s *Service) int {
		n := s.accounts.InvalidatePrefix("accounts")
		return n + s.account.InvalidatePrefix("accounts:")
	},
	"analytics": func(s *Service) int {
		return s.analytics.InvalidatePrefix("analytics:")
	},
	// The user itself lives in the session store; there is no cache
	// entry to mark, only observers to notify.
	"user": func(*Service) int { return 0 },
}

func (s *Service) invalidate(ops ...string) {
	touched := 0
	for _, op := range ops {
		if fn, ok := invalidators[op]; ok {
			touched += fn(s)
		}
		s.supersedeFlights(op)
	}
	s.logger.Debug("Caches invalidated", log.FieldOperation, strings.Join(ops, ","), "entries", touched)
	s.notify(Invalidation{Ops: ops})
}

// supersedeFlights advances the generation of every key in the family
// and forgets its in-flight calls, so responses issued before the
// mutation cannot overwrite post-mutation state.
func (s *Service) supersedeFlights(op string) {
	s.mu.Lock()
	var keys []string
	for key := range s.gens {
		if strings.HasPrefix(key, op) {
			s.gens[key]++
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	for _, key := range keys {
		s.flights.Forget(key)
	}
}

func (s *Service) notify(inv Invalidation) {
	s.mu.Lock()
	subs := append(([]func(Invalidation))(nil), s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(inv)
	}
}

func (s *Service) refreshRatesLoop() {
	defer close(s.ratesDone)

	ticker := time.NewTicker(s.cfg.RatesRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshRates()
		case <-s.stopRates:
			return
		}
	}
}

func (s *Service) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
	defer cancel()

	rates, err := s.bank.ExchangeRates(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Background rate refresh failed", log.FieldError, err)
		return
	}
	s.rates.Set("rates", rates)
}

func filterKey(f core.TransactionFilters) string {
	// Struct field order makes the encoding canonical.
	data, err := json.Marshal(f)
	if err != nil {
		return "unencodable"
	}
	return string(data)
}
