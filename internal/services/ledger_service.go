package services

import (
	"context"
	"errors"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// LedgerService orchestrates ledger mutations: the store commits, then the
// report cache is invalidated and an event is published. Publishing is best
// effort; the committed ledger is the source of truth.
type LedgerService struct {
	store       LedgerStore
	publisher   EventPublisher
	invalidator Invalidator
	logger      *log.Logger
}

// NewLedgerService wires the service. publisher and invalidator may be nil.
func NewLedgerService(store LedgerStore, publisher EventPublisher, invalidator Invalidator, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger.WithComponent(log.ComponentLedger),
	}
}

func (s *LedgerService) CreateAccount(ctx context.Context, owner, name string, typ core.AccountType, initial core.Money, currency string) (core.Account, error) {
	a, err := s.store.CreateAccount(ctx, core.Account{
		Owner:          owner,
		Name:           name,
		Type:           typ,
		InitialBalance: initial,
		Currency:       currency,
	})
	if err != nil {
		s.logFailure(ctx, "Create account failed", log.OpCreate, err, log.NewFields().WithLedger(owner, 0, 0))
		return core.Account{}, err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventAccountUpdated, owner, a.ID, 0))
	return a, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, owner string, activeOnly bool) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, owner, activeOnly)
}

func (s *LedgerService) GetAccount(ctx context.Context, owner string, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, owner, id)
}

func (s *LedgerService) SetAccountActive(ctx context.Context, owner string, id int64, active bool) (core.Account, error) {
	a, err := s.store.SetAccountActive(ctx, owner, id, active)
	if err != nil {
		s.logFailure(ctx, "Set account active failed", log.OpUpdate, err, log.NewFields().WithLedger(owner, id, 0))
		return core.Account{}, err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventAccountUpdated, owner, a.ID, 0))
	return a, nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, owner, name string, dir core.Direction, color, icon string) (core.Category, error) {
	c, err := s.store.CreateCategory(ctx, core.Category{
		Owner: owner,
		Name:  name,
		Type:  dir,
		Color: strings.TrimSpace(color),
		Icon:  strings.TrimSpace(icon),
	})
	if err != nil {
		s.logFailure(ctx, "Create category failed", log.OpCreate, err, log.NewFields().WithLedger(owner, 0, 0))
		return core.Category{}, err
	}
	s.invalidate(owner)
	return c, nil
}

// ListCategories seeds the default categories on first use, then lists.
func (s *LedgerService) ListCategories(ctx context.Context, owner string, dir core.Direction) ([]core.Category, error) {
	if _, err := s.store.SeedDefaultCategories(ctx, owner); err != nil {
		s.logFailure(ctx, "Seed default categories failed", log.OpCreate, err, log.NewFields().WithLedger(owner, 0, 0))
		return nil, err
	}
	return s.store.ListCategories(ctx, owner, dir)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, nt core.NewTransaction) (core.Transaction, error) {
	t, err := s.store.CreateTransaction(ctx, owner, nt)
	if err != nil {
		s.logFailure(ctx, "Create transaction failed", log.OpCreate, err, log.NewFields().WithLedger(owner, nt.AccountID, 0))
		return core.Transaction{}, err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventTransactionCreated, owner, t.AccountID, t.ID))
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, owner string, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, &core.ValidationError{Reason: "no fields to update"}
	}
	t, err := s.store.UpdateTransaction(ctx, owner, id, patch)
	if err != nil {
		s.logFailure(ctx, "Update transaction failed", log.OpUpdate, err, log.NewFields().WithLedger(owner, 0, id))
		return core.Transaction{}, err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventTransactionUpdated, owner, t.AccountID, t.ID))
	return t, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	t, err := s.store.DeleteTransaction(ctx, owner, id)
	if err != nil {
		s.logFailure(ctx, "Delete transaction failed", log.OpDelete, err, log.NewFields().WithLedger(owner, 0, id))
		return err
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, owner, t.AccountID, t.ID))
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, owner, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, owner string, f core.TransactionFilter, p core.Page) (core.TransactionPage, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return core.TransactionPage{}, &core.ValidationError{Field: "from", Reason: "must not be after to"}
	}
	page, err := s.store.ListTransactions(ctx, owner, f, p)
	if err != nil {
		s.logFailure(ctx, "Failed to list transactions", log.OpList, err, log.NewFields().WithLedger(owner, f.AccountID, 0))
	}
	return page, err
}

// changed runs the post-commit side effects of a mutation.
func (s *LedgerService) changed(ctx context.Context, event *amqp.LedgerEvent) {
	s.invalidate(event.Owner)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publishing disabled, skipping ledger event", log.FieldEvent, event.Type)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.LogError(ctx, "Failed to publish ledger event", err, log.OpPublish,
			log.NewFields().WithLedger(event.Owner, event.AccountID, event.TransactionID))
	}
}

func (s *LedgerService) invalidate(owner string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(owner)
	}
}

// logFailure logs domain rejections at warn and everything else at error.
func (s *LedgerService) logFailure(ctx context.Context, msg, op string, err error, fields log.LogFields) {
	errType := errorType(err)
	if errType == log.ErrorTypeDatabase {
		s.logger.LogError(ctx, msg, err, op, fields.WithErrorType(errType))
		return
	}
	s.logger.WarnContext(ctx, msg, fields.WithError(err).WithOperation(op).WithErrorType(errType).ToSlice()...)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrConsistency):
		return log.ErrorTypeConflict
	}
	return log.ErrorTypeDatabase
}
