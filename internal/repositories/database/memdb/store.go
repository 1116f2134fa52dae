// Package memdb is a mutex-guarded in-memory implementation of the repository
// ports. It backs local development without Postgres and the service-level
// tests, and mirrors the pgsql behavior including atomic posting, the stale
// balance-snapshot guard and gap-free entry codes.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SajmustafaKe/trustledger/internal/apperrors"
	"github.com/SajmustafaKe/trustledger/internal/core/domain"
	"github.com/SajmustafaKe/trustledger/internal/core/ports"
	"github.com/SajmustafaKe/trustledger/internal/utils/codes"
	"github.com/SajmustafaKe/trustledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

// Store holds all tables behind one RWMutex. Multi-table writes (MarkPosted,
// MarkReversed) hold the write lock for their full duration, which gives the
// same atomicity the pgsql layer gets from a database transaction.
type Store struct {
	mu        sync.RWMutex
	clients   map[string]domain.Client
	txns      map[string]domain.Transaction
	entries   []domain.LedgerEntry
	approvers map[string]domain.Approver
	sequences map[string]int64 // key: prefix+year
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		clients:   make(map[string]domain.Client),
		txns:      make(map[string]domain.Transaction),
		approvers: make(map[string]domain.Approver),
		sequences: make(map[string]int64),
	}
}

// NewRepositories exposes one store through all four repository ports.
func NewRepositories(store *Store) ports.Repositories {
	return ports.Repositories{
		Clients:      (*clientRepo)(store),
		Transactions: (*transactionRepo)(store),
		Ledger:       (*ledgerRepo)(store),
		Approvers:    (*approverRepo)(store),
	}
}

func (s *Store) nextCode(prefix string, year int) (string, error) {
	key := fmt.Sprintf("%s%d", prefix, year)
	s.sequences[key]++
	return codes.Format(prefix, year, s.sequences[key])
}

// ledgerSumLocked sums a client's ledger deltas. Caller holds s.mu.
func (s *Store) ledgerSumLocked(clientID string) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range s.entries {
		if e.ClientID == clientID {
			sum = sum.Add(e.BalanceChange)
		}
	}
	return sum
}

// --- clients ---

type clientRepo Store

var _ ports.ClientRepository = (*clientRepo)(nil)

func (r *clientRepo) SaveClient(ctx context.Context, client domain.Client) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ClientID]; ok {
		return apperrors.ErrDuplicate
	}
	s.clients[client.ClientID] = client
	return nil
}

func (r *clientRepo) FindClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &client, nil
}

func (r *clientRepo) UpdateClientStatus(ctx context.Context, clientID string, status domain.ClientStatus, updatedBy string, updatedAt time.Time) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[clientID]
	if !ok {
		return apperrors.ErrNotFound
	}
	client.Status = status
	client.LastUpdatedBy = updatedBy
	client.LastUpdatedAt = updatedAt
	s.clients[clientID] = client
	return nil
}

func (r *clientRepo) ListClients(ctx context.Context, limit int, nextToken *string) ([]domain.Client, *string, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}

	all := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ClientID > all[j].ClientID
	})

	if nextToken != nil && *nextToken != "" {
		lastDate, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		filtered := all[:0]
		for _, c := range all {
			if c.CreatedAt.Before(lastDate) || (c.CreatedAt.Equal(lastDate) && c.ClientID < lastID) {
				filtered = append(filtered, c)
			}
		}
		all = filtered
	}

	var token *string
	if len(all) > limit {
		last := all[limit-1]
		t := pagination.EncodeToken(last.CreatedAt, last.ClientID)
		token = &t
		all = all[:limit]
	}
	return all, token, nil
}

// --- transactions ---

type transactionRepo Store

var _ ports.TransactionRepository = (*transactionRepo)(nil)

func (r *transactionRepo) NextTransactionCode(ctx context.Context, year int) (string, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextCode(codes.TransactionPrefix, year)
}

func (r *transactionRepo) SaveDraft(ctx context.Context, txn domain.Transaction) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[txn.TransactionID]; ok {
		return apperrors.ErrDuplicate
	}
	s.txns[txn.TransactionID] = txn
	return nil
}

func (r *transactionRepo) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txns[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

func (r *transactionRepo) UpdateDraft(ctx context.Context, txn domain.Transaction) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.txns[txn.TransactionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if existing.Status != domain.Draft {
		return apperrors.ErrNotDraft
	}
	s.txns[txn.TransactionID] = txn
	return nil
}

func (r *transactionRepo) DeleteDraft(ctx context.Context, transactionID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.txns[transactionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if existing.Status != domain.Draft {
		return apperrors.ErrNotDraft
	}
	delete(s.txns, transactionID)
	return nil
}

func (r *transactionRepo) ListTransactionsByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}

	all := []domain.Transaction{}
	for _, t := range s.txns {
		if t.ClientID == clientID {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].TransactionDate.Equal(all[j].TransactionDate) {
			return all[i].TransactionDate.After(all[j].TransactionDate)
		}
		return all[i].TransactionID > all[j].TransactionID
	})

	if nextToken != nil && *nextToken != "" {
		lastDate, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		filtered := all[:0]
		for _, t := range all {
			if t.TransactionDate.Before(lastDate) || (t.TransactionDate.Equal(lastDate) && t.TransactionID < lastID) {
				filtered = append(filtered, t)
			}
		}
		all = filtered
	}

	var token *string
	if len(all) > limit {
		last := all[limit-1]
		t := pagination.EncodeToken(last.TransactionDate, last.TransactionID)
		token = &t
		all = all[:limit]
	}
	return all, token, nil
}

func (r *transactionRepo) MarkPosted(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.txns[txn.TransactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if existing.Status != domain.Draft {
		return nil, apperrors.ErrAlreadyPosted
	}
	client, ok := s.clients[txn.ClientID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	// The balance was validated before this call; reject the posting if the
	// ledger moved in between and the snapshot no longer holds.
	if !s.ledgerSumLocked(txn.ClientID).Equal(entry.BalanceAfter.Sub(entry.BalanceChange)) {
		return nil, apperrors.ErrStaleBalance
	}

	entryID, err := s.nextCode(codes.LedgerPrefix, entry.CreatedAt.Year())
	if err != nil {
		return nil, err
	}
	entry.EntryID = entryID
	s.txns[txn.TransactionID] = txn
	s.entries = append(s.entries, entry)
	client.TrustBalance = entry.BalanceAfter
	client.LastUpdatedBy = txn.LastUpdatedBy
	client.LastUpdatedAt = txn.LastUpdatedAt
	s.clients[client.ClientID] = client
	return &entry, nil
}

func (r *transactionRepo) MarkReversed(ctx context.Context, txn domain.Transaction, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.txns[txn.TransactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if existing.Status != domain.Posted {
		return nil, apperrors.ErrAlreadyReversed
	}
	client, ok := s.clients[txn.ClientID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !s.ledgerSumLocked(txn.ClientID).Equal(entry.BalanceAfter.Sub(entry.BalanceChange)) {
		return nil, apperrors.ErrStaleBalance
	}

	entryID, err := s.nextCode(codes.LedgerPrefix, entry.CreatedAt.Year())
	if err != nil {
		return nil, err
	}
	entry.EntryID = entryID
	s.txns[txn.TransactionID] = txn
	s.entries = append(s.entries, entry)
	client.TrustBalance = entry.BalanceAfter
	client.LastUpdatedBy = txn.LastUpdatedBy
	client.LastUpdatedAt = txn.LastUpdatedAt
	s.clients[client.ClientID] = client
	return &entry, nil
}

// --- ledger ---

type ledgerRepo Store

var _ ports.LedgerRepository = (*ledgerRepo)(nil)

func (r *ledgerRepo) SumBalance(ctx context.Context, clientID string, asOf *time.Time, excludeTransactionID string) (decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range s.entries {
		if e.ClientID != clientID {
			continue
		}
		if asOf != nil && e.TransactionDate.After(*asOf) {
			continue
		}
		if excludeTransactionID != "" && e.TransactionID == excludeTransactionID {
			continue
		}
		sum = sum.Add(e.BalanceChange)
	}
	return sum, nil
}

func (r *ledgerRepo) SumBalanceBefore(ctx context.Context, clientID string, before time.Time) (decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, e := range s.entries {
		if e.ClientID == clientID && e.TransactionDate.Before(before) {
			sum = sum.Add(e.BalanceChange)
		}
	}
	return sum, nil
}

func (r *ledgerRepo) FindEntriesByClientRange(ctx context.Context, clientID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.LedgerEntry{}
	for _, e := range s.entries {
		if e.ClientID == clientID && !e.TransactionDate.Before(from) && !e.TransactionDate.After(to) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].TransactionDate.Before(result[j].TransactionDate)
		}
		return result[i].EntryID < result[j].EntryID
	})
	return result, nil
}

func (r *ledgerRepo) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.LedgerEntry{}
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EntryID < result[j].EntryID })
	return result, nil
}

func (r *ledgerRepo) ListEntriesByClient(ctx context.Context, clientID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}

	all := []domain.LedgerEntry{}
	for _, e := range s.entries {
		if e.ClientID == clientID {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].TransactionDate.Equal(all[j].TransactionDate) {
			return all[i].TransactionDate.After(all[j].TransactionDate)
		}
		return all[i].EntryID > all[j].EntryID
	})

	if nextToken != nil && *nextToken != "" {
		lastDate, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		filtered := all[:0]
		for _, e := range all {
			if e.TransactionDate.Before(lastDate) || (e.TransactionDate.Equal(lastDate) && e.EntryID < lastID) {
				filtered = append(filtered, e)
			}
		}
		all = filtered
	}

	var token *string
	if len(all) > limit {
		last := all[limit-1]
		t := pagination.EncodeToken(last.TransactionDate, last.EntryID)
		token = &t
		all = all[:limit]
	}
	return all, token, nil
}

// --- approvers ---

type approverRepo Store

var _ ports.ApproverRepository = (*approverRepo)(nil)

func (r *approverRepo) SaveApprover(ctx context.Context, approver domain.Approver) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.approvers[approver.ApproverID]; ok {
		return apperrors.ErrDuplicate
	}
	s.approvers[approver.ApproverID] = approver
	return nil
}

func (r *approverRepo) FindApproverByID(ctx context.Context, approverID string) (*domain.Approver, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	approver, ok := s.approvers[approverID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &approver, nil
}
