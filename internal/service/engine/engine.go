package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bank-ledger/internal/domain"
	"github.com/josh-kwaku/bank-ledger/internal/logging"
	"github.com/josh-kwaku/bank-ledger/internal/repository"
)

type store interface {
	Begin(ctx context.Context) (repository.Tx, error)
	GetAccount(ctx context.Context, number string) (*domain.Account, error)
	GetEntry(ctx context.Context, id int64) (*domain.Transaction, error)
	LoanEntries(ctx context.Context, number string) ([]domain.Transaction, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Clock          func() time.Time
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     4,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     200 * time.Millisecond,
	}
}

type Engine struct {
	store    store
	notifier notifier
	cfg      Config
}

// New builds an engine. notifier may be nil, in which case committed
// operations are not announced anywhere.
func New(store store, notifier notifier, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Engine{store: store, notifier: notifier, cfg: cfg}
}

func (e *Engine) ResolveAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	acct, err := e.store.GetAccount(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("ResolveAccountByNumber: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("ResolveAccountByNumber: %w", err)
	}
	return acct, nil
}

// withRetry reruns fn while it loses races, up to the configured bound.
// Any error other than domain.ErrConflict ends the loop immediately.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	log := logging.FromContext(logging.With(ctx, "op", op))

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = e.cfg.InitialBackoff
	eb.MaxInterval = e.cfg.MaxBackoff
	eb.MaxElapsedTime = 0
	eb.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(e.cfg.MaxRetries)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return backoff.Permanent(err)
		}
		log.Debug("lost concurrent update, retrying", "attempt", attempt, "error", err)
		return err
	}, b)

	if errors.Is(err, domain.ErrConflict) {
		log.Warn("giving up after repeated conflicts", "attempts", attempt)
	}
	return err
}

func (e *Engine) now() time.Time {
	return e.cfg.Clock().UTC()
}

func lockAccount(ctx context.Context, tx repository.Tx, number string) (*domain.Account, error) {
	locked, err := tx.AccountsForUpdate(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("lockAccount: %w", err)
	}
	acct, ok := locked[number]
	if !ok {
		return nil, fmt.Errorf("lockAccount: %s: %w", number, domain.ErrAccountNotFound)
	}
	return acct, nil
}

// record moves acct's balance by delta and appends entry with the resulting
// balance. acct is updated in place so later steps in the same unit see it.
func (e *Engine) record(ctx context.Context, tx repository.Tx, acct *domain.Account, delta decimal.Decimal, entry *domain.Transaction) error {
	balance := acct.Balance
	if !delta.IsZero() {
		var err error
		balance, err = tx.ApplyDelta(ctx, acct.Number, delta, acct.Balance)
		if err != nil {
			return fmt.Errorf("record: %w", err)
		}
	}

	entry.AccountNumber = acct.Number
	entry.BalanceAfter = balance
	entry.CreatedAt = e.now()
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	acct.Balance = balance
	return nil
}

func (e *Engine) notify(ctx context.Context, n domain.Notification) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		logging.FromContext(ctx).Warn("notification not delivered",
			"template", n.Template,
			"user_ref", n.UserRef,
			"error", err,
		)
	}
}
