package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

type memoryState struct {
	items          map[string]domain.InventoryItem
	transactions   []domain.InventoryTransaction
	locations      map[string]domain.Location
	requests       map[string]domain.Request
	returnRequests map[string]domain.ReturnRequest
	sequence       int64
	lastSeq        int64
}

func newMemoryState() memoryState {
	return memoryState{
		items:          make(map[string]domain.InventoryItem),
		locations:      make(map[string]domain.Location),
		requests:       make(map[string]domain.Request),
		returnRequests: make(map[string]domain.ReturnRequest),
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		items:          make(map[string]domain.InventoryItem, len(s.items)),
		transactions:   make([]domain.InventoryTransaction, len(s.transactions)),
		locations:      make(map[string]domain.Location, len(s.locations)),
		requests:       make(map[string]domain.Request, len(s.requests)),
		returnRequests: make(map[string]domain.ReturnRequest, len(s.returnRequests)),
		sequence:       s.sequence,
		lastSeq:        s.lastSeq,
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	copy(c.transactions, s.transactions)
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.returnRequests {
		c.returnRequests[k] = v
	}
	return c
}

// MemoryAdapter is a single-process Store. A transaction holds the store lock
// and works on a staged copy that only replaces the live state on success.
type MemoryAdapter struct {
	mu    sync.Mutex
	state memoryState
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{state: newMemoryState()}
}

var _ port.Store = (*MemoryAdapter)(nil)

func (m *MemoryAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := m.state.clone()
	if err := fn(ctx, &memoryTx{state: &staged}); err != nil {
		return err
	}
	m.state = staged
	return nil
}

func (m *MemoryAdapter) NextSequence(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.sequence++
	return m.state.sequence, nil
}

func (m *MemoryAdapter) PeekSequence(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.sequence, nil
}

func (m *MemoryAdapter) ResyncSequence(ctx context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := int64(len(m.state.items))
	if m.state.sequence != 0 || count == 0 {
		return m.state.sequence, false, nil
	}
	m.state.sequence = count
	return count, true, nil
}

// SetSequence seeds the counter, used when importing existing data.
func (m *MemoryAdapter) SetSequence(value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.sequence = value
}

func (m *MemoryAdapter) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.state.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (m *MemoryAdapter) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.state.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &loc, nil
}

func (m *MemoryAdapter) GetDefaultLocation(ctx context.Context) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return defaultLocation(m.state.locations)
}

func (m *MemoryAdapter) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryAdapter) ListTransactions(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.InventoryTransaction
	for _, t := range m.state.transactions {
		if t.InventoryItemID == itemID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *MemoryAdapter) LedgerStatistics(ctx context.Context, filter domain.LedgerFilter) (*domain.LedgerStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType := make(map[domain.TransactionType]*domain.TypeStatistic)
	byMonth := make(map[string]*domain.MonthStatistic)
	for _, t := range m.state.transactions {
		if !matchesFilter(t, filter) {
			continue
		}

		ts, ok := byType[t.TransactionType]
		if !ok {
			ts = &domain.TypeStatistic{TransactionType: t.TransactionType, Value: decimal.Zero}
			byType[t.TransactionType] = ts
		}
		ts.Count++
		ts.Quantity += t.Quantity
		ts.Value = ts.Value.Add(t.TotalValue)

		month := t.TransactionDate.UTC().Format("2006-01")
		ms, ok := byMonth[month]
		if !ok {
			ms = &domain.MonthStatistic{Month: month, Value: decimal.Zero}
			byMonth[month] = ms
		}
		ms.Count++
		ms.Quantity += t.Quantity
		ms.Value = ms.Value.Add(t.TotalValue)
	}

	stats := &domain.LedgerStatistics{}
	for _, tt := range domain.TransactionTypes {
		if ts, ok := byType[tt]; ok {
			stats.ByType = append(stats.ByType, *ts)
		}
	}
	for _, ms := range byMonth {
		stats.ByMonth = append(stats.ByMonth, *ms)
	}
	sort.Slice(stats.ByMonth, func(i, j int) bool {
		return stats.ByMonth[i].Month < stats.ByMonth[j].Month
	})
	return stats, nil
}

func matchesFilter(t domain.InventoryTransaction, f domain.LedgerFilter) bool {
	if f.InventoryItemID != "" && t.InventoryItemID != f.InventoryItemID {
		return false
	}
	if f.From != nil && t.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && t.TransactionDate.After(*f.To) {
		return false
	}
	return true
}

type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) GetItemForUpdate(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, ok := t.state.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &item, nil
}

func (t *memoryTx) UniqueIDExists(ctx context.Context, uniqueID string) (bool, error) {
	for _, item := range t.state.items {
		if item.UniqueID == uniqueID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) InsertItem(ctx context.Context, item *domain.InventoryItem) error {
	if exists, _ := t.UniqueIDExists(ctx, item.UniqueID); exists {
		return domain.ErrDuplicateUniqueID
	}
	item.Version = 0
	t.state.items[item.ID] = *item
	return nil
}

func (t *memoryTx) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	stored, ok := t.state.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != item.Version {
		return domain.ErrConcurrentUpdate
	}
	item.Version++
	t.state.items[item.ID] = *item
	return nil
}

func (t *memoryTx) DeleteItem(ctx context.Context, id string) error {
	if _, ok := t.state.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.state.items, id)
	return nil
}

func (t *memoryTx) AppendTransaction(ctx context.Context, tr *domain.InventoryTransaction) error {
	t.state.lastSeq++
	tr.Seq = t.state.lastSeq
	if tr.TransactionDate.IsZero() {
		tr.TransactionDate = time.Now().UTC()
	}
	t.state.transactions = append(t.state.transactions, *tr)
	return nil
}

func (t *memoryTx) DeleteTransactionsByItem(ctx context.Context, itemID string) (int64, error) {
	kept := t.state.transactions[:0]
	var n int64
	for _, tr := range t.state.transactions {
		if tr.InventoryItemID == itemID {
			n++
			continue
		}
		kept = append(kept, tr)
	}
	t.state.transactions = kept
	return n, nil
}

func (t *memoryTx) GetLocationForUpdate(ctx context.Context, id string) (*domain.Location, error) {
	loc, ok := t.state.locations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &loc, nil
}

func (t *memoryTx) GetDefaultLocationForUpdate(ctx context.Context) (*domain.Location, error) {
	return defaultLocation(t.state.locations)
}

func defaultLocation(locations map[string]domain.Location) (*domain.Location, error) {
	for _, loc := range locations {
		if loc.IsDefault {
			return &loc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *memoryTx) InsertLocation(ctx context.Context, loc *domain.Location) error {
	t.state.locations[loc.ID] = *loc
	return nil
}

func (t *memoryTx) UpdateLocation(ctx context.Context, loc *domain.Location) error {
	if _, ok := t.state.locations[loc.ID]; !ok {
		return domain.ErrNotFound
	}
	t.state.locations[loc.ID] = *loc
	return nil
}

func (t *memoryTx) ClearDefaultLocation(ctx context.Context, keepID string) error {
	for id, loc := range t.state.locations {
		if id != keepID && loc.IsDefault {
			loc.IsDefault = false
			t.state.locations[id] = loc
		}
	}
	return nil
}

func (t *memoryTx) GetRequestForUpdate(ctx context.Context, id string) (*domain.Request, error) {
	r, ok := t.state.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (t *memoryTx) InsertRequest(ctx context.Context, r *domain.Request) error {
	t.state.requests[r.ID] = *r
	return nil
}

func (t *memoryTx) UpdateRequest(ctx context.Context, r *domain.Request) error {
	if _, ok := t.state.requests[r.ID]; !ok {
		return domain.ErrNotFound
	}
	t.state.requests[r.ID] = *r
	return nil
}

func (t *memoryTx) DeleteRequestsByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	for id, r := range t.state.requests {
		if r.ItemID == itemID || (r.AssignedItemID != nil && *r.AssignedItemID == itemID) {
			delete(t.state.requests, id)
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) GetReturnRequestForUpdate(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	r, ok := t.state.returnRequests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (t *memoryTx) InsertReturnRequest(ctx context.Context, r *domain.ReturnRequest) error {
	t.state.returnRequests[r.ID] = *r
	return nil
}

func (t *memoryTx) UpdateReturnRequest(ctx context.Context, r *domain.ReturnRequest) error {
	if _, ok := t.state.returnRequests[r.ID]; !ok {
		return domain.ErrNotFound
	}
	t.state.returnRequests[r.ID] = *r
	return nil
}

func (t *memoryTx) DeleteReturnRequestsByItem(ctx context.Context, itemID string) (int64, error) {
	var n int64
	for id, r := range t.state.returnRequests {
		if r.ItemID == itemID {
			delete(t.state.returnRequests, id)
			n++
		}
	}
	return n, nil
}

// MemoryCache is the in-process stand-in for the Redis idempotency keys.
type MemoryCache struct {
	mu   sync.Mutex
	keys map[string]time.Time
	ttl  time.Duration
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultIdempotencyKeyTTL
	}
	return &MemoryCache{keys: make(map[string]time.Time), ttl: ttl}
}

var _ port.CacheRepository = (*MemoryCache)(nil)

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if exp, ok := c.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	c.keys[key] = now.Add(c.ttl)
	return true, nil
}

func (c *MemoryCache) ClearIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, key)
	return nil
}
