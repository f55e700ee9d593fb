package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rl1809/asset-ledger/internal/core/domain"
	"github.com/rl1809/asset-ledger/internal/port"
)

const (
	globalCounterID   = "global"
	mysqlDuplicateKey = 1062
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type MySQLAdapter struct {
	db *sqlx.DB
	mysqlRepo
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db, mysqlRepo: mysqlRepo{q: db}}
}

var _ port.Store = (*MySQLAdapter)(nil)

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.TxRepository) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &mysqlRepo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NextSequence relies on LAST_INSERT_ID(expr) so the increment and the read are one statement.
func (m *MySQLAdapter) NextSequence(ctx context.Context) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE sequence_counters
		SET sequence_value = LAST_INSERT_ID(sequence_value + 1)
		WHERE id = ?`, globalCounterID,
	)
	if err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, fmt.Errorf("sequence counter %q missing", globalCounterID)
	}

	return result.LastInsertId()
}

func (m *MySQLAdapter) PeekSequence(ctx context.Context) (int64, error) {
	var v int64
	err := m.db.GetContext(ctx, &v, `SELECT sequence_value FROM sequence_counters WHERE id = ?`, globalCounterID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query sequence: %w", err)
	}
	return v, nil
}

func (m *MySQLAdapter) ResyncSequence(ctx context.Context) (int64, bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE sequence_counters
		SET sequence_value = GREATEST(sequence_value, (SELECT COUNT(*) FROM inventory_items))
		WHERE id = ? AND sequence_value = 0`, globalCounterID,
	)
	if err != nil {
		return 0, false, fmt.Errorf("resync sequence: %w", err)
	}

	rows, _ := result.RowsAffected()
	v, err := m.PeekSequence(ctx)
	if err != nil {
		return 0, false, err
	}
	return v, rows > 0, nil
}

type mysqlRepo struct {
	q querier
}

type itemRow struct {
	ID                 string          `db:"id"`
	UniqueID           string          `db:"unique_id"`
	Name               string          `db:"name"`
	Balance            int             `db:"balance_quantity_in_stock"`
	MinimumStockLevel  int             `db:"minimum_stock_level"`
	QuantityPerItem    int             `db:"quantity_per_item"`
	UnitPrice          decimal.Decimal `db:"unit_price"`
	Status             string          `db:"status"`
	IssuedTo           sql.NullString  `db:"issued_to"`
	IssuedBy           sql.NullString  `db:"issued_by"`
	IssuedDate         sql.NullTime    `db:"issued_date"`
	ExpectedReturnDate sql.NullTime    `db:"expected_return_date"`
	LocationID         sql.NullString  `db:"location_id"`
	AssetCategoryID    sql.NullString  `db:"asset_category_id"`
	FinancialYear      string          `db:"financial_year"`
	AssetCode          string          `db:"asset_code"`
	LastModifiedBy     string          `db:"last_modified_by"`
	LastModifiedDate   time.Time       `db:"last_modified_date"`
	Version            int             `db:"version"`
	CreatedAt          time.Time       `db:"created_at"`
}

const itemColumns = `id, unique_id, name, balance_quantity_in_stock, minimum_stock_level,
	quantity_per_item, unit_price, status, issued_to, issued_by, issued_date,
	expected_return_date, location_id, asset_category_id, financial_year, asset_code,
	last_modified_by, last_modified_date, version, created_at`

func (r itemRow) toDomain() (*domain.InventoryItem, error) {
	status, err := domain.ParseItemStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", r.ID, err)
	}
	return &domain.InventoryItem{
		ID:                     r.ID,
		UniqueID:               r.UniqueID,
		Name:                   r.Name,
		BalanceQuantityInStock: r.Balance,
		MinimumStockLevel:      r.MinimumStockLevel,
		QuantityPerItem:        r.QuantityPerItem,
		UnitPrice:              r.UnitPrice,
		Status:                 status,
		IssuedTo:               nullString(r.IssuedTo),
		IssuedBy:               nullString(r.IssuedBy),
		IssuedDate:             nullTime(r.IssuedDate),
		ExpectedReturnDate:     nullTime(r.ExpectedReturnDate),
		LocationID:             nullString(r.LocationID),
		AssetCategoryID:        nullString(r.AssetCategoryID),
		FinancialYear:          r.FinancialYear,
		AssetCode:              r.AssetCode,
		LastModifiedBy:         r.LastModifiedBy,
		LastModifiedDate:       r.LastModifiedDate,
		Version:                r.Version,
		CreatedAt:              r.CreatedAt,
	}, nil
}

func (m *mysqlRepo) getItem(ctx context.Context, query string, args ...any) (*domain.InventoryItem, error) {
	var row itemRow
	err := m.q.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return row.toDomain()
}

func (m *mysqlRepo) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return m.getItem(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id)
}

func (m *mysqlRepo) GetItemForUpdate(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return m.getItem(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ? FOR UPDATE`, id)
}

func (m *mysqlRepo) UniqueIDExists(ctx context.Context, uniqueID string) (bool, error) {
	var n int
	if err := m.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM inventory_items WHERE unique_id = ?`, uniqueID); err != nil {
		return false, fmt.Errorf("query unique id: %w", err)
	}
	return n > 0, nil
}

func (m *mysqlRepo) InsertItem(ctx context.Context, item *domain.InventoryItem) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO inventory_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		item.ID, item.UniqueID, item.Name, item.BalanceQuantityInStock, item.MinimumStockLevel,
		item.QuantityPerItem, item.UnitPrice, string(item.Status), item.IssuedTo, item.IssuedBy, item.IssuedDate,
		item.ExpectedReturnDate, item.LocationID, item.AssetCategoryID, item.FinancialYear, item.AssetCode,
		item.LastModifiedBy, item.LastModifiedDate, item.CreatedAt,
	)
	if isDuplicateKey(err) {
		return domain.ErrDuplicateUniqueID
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	item.Version = 0
	return nil
}

func (m *mysqlRepo) UpdateItem(ctx context.Context, item *domain.InventoryItem) error {
	result, err := m.q.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, balance_quantity_in_stock = ?, minimum_stock_level = ?, quantity_per_item = ?,
			unit_price = ?, status = ?, issued_to = ?, issued_by = ?, issued_date = ?,
			expected_return_date = ?, location_id = ?, asset_category_id = ?,
			last_modified_by = ?, last_modified_date = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		item.Name, item.BalanceQuantityInStock, item.MinimumStockLevel, item.QuantityPerItem,
		item.UnitPrice, string(item.Status), item.IssuedTo, item.IssuedBy, item.IssuedDate,
		item.ExpectedReturnDate, item.LocationID, item.AssetCategoryID,
		item.LastModifiedBy, item.LastModifiedDate,
		item.ID, item.Version,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConcurrentUpdate
	}
	item.Version++
	return nil
}

func (m *mysqlRepo) DeleteItem(ctx context.Context, id string) error {
	result, err := m.q.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type transactionRow struct {
	Seq              int64           `db:"seq"`
	ID               string          `db:"id"`
	InventoryItemID  string          `db:"inventory_item_id"`
	TransactionType  string          `db:"transaction_type"`
	Quantity         int             `db:"quantity"`
	PreviousQuantity int             `db:"previous_quantity"`
	NewQuantity      int             `db:"new_quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	TotalValue       decimal.Decimal `db:"total_value"`
	Status           string          `db:"status"`
	PerformedBy      string          `db:"performed_by"`
	IssuedTo         sql.NullString  `db:"issued_to"`
	Reason           string          `db:"reason"`
	ReferenceID      sql.NullString  `db:"reference_id"`
	TransactionDate  time.Time       `db:"transaction_date"`
}

func (r transactionRow) toDomain() domain.InventoryTransaction {
	return domain.InventoryTransaction{
		ID:               r.ID,
		Seq:              r.Seq,
		InventoryItemID:  r.InventoryItemID,
		TransactionType:  domain.TransactionType(r.TransactionType),
		Quantity:         r.Quantity,
		PreviousQuantity: r.PreviousQuantity,
		NewQuantity:      r.NewQuantity,
		UnitPrice:        r.UnitPrice,
		TotalValue:       r.TotalValue,
		Status:           domain.TransactionStatus(r.Status),
		PerformedBy:      r.PerformedBy,
		IssuedTo:         nullString(r.IssuedTo),
		Reason:           r.Reason,
		ReferenceID:      nullString(r.ReferenceID),
		TransactionDate:  r.TransactionDate,
	}
}

func (m *mysqlRepo) AppendTransaction(ctx context.Context, t *domain.InventoryTransaction) error {
	result, err := m.q.ExecContext(ctx, `
		INSERT INTO inventory_transactions (id, inventory_item_id, transaction_type, quantity,
			previous_quantity, new_quantity, unit_price, total_value, status, performed_by,
			issued_to, reason, reference_id, transaction_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.InventoryItemID, string(t.TransactionType), t.Quantity,
		t.PreviousQuantity, t.NewQuantity, t.UnitPrice, t.TotalValue, string(t.Status), t.PerformedBy,
		t.IssuedTo, t.Reason, t.ReferenceID, t.TransactionDate,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if seq, err := result.LastInsertId(); err == nil {
		t.Seq = seq
	}
	return nil
}

func (m *mysqlRepo) DeleteTransactionsByItem(ctx context.Context, itemID string) (int64, error) {
	return m.deleteWhere(ctx, `DELETE FROM inventory_transactions WHERE inventory_item_id = ?`, itemID)
}

func (m *mysqlRepo) ListTransactions(ctx context.Context, itemID string) ([]domain.InventoryTransaction, error) {
	var rows []transactionRow
	err := m.q.SelectContext(ctx, &rows, `
		SELECT seq, id, inventory_item_id, transaction_type, quantity, previous_quantity,
			new_quantity, unit_price, total_value, status, performed_by, issued_to, reason,
			reference_id, transaction_date
		FROM inventory_transactions
		WHERE inventory_item_id = ?
		ORDER BY seq`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	out := make([]domain.InventoryTransaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

type statRow struct {
	Key      string          `db:"bucket"`
	Count    int             `db:"count"`
	Quantity int             `db:"quantity"`
	Value    decimal.Decimal `db:"value"`
}

func (m *mysqlRepo) LedgerStatistics(ctx context.Context, filter domain.LedgerFilter) (*domain.LedgerStatistics, error) {
	var conds []string
	var args []any
	if filter.InventoryItemID != "" {
		conds = append(conds, "inventory_item_id = ?")
		args = append(args, filter.InventoryItemID)
	}
	if filter.From != nil {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, *filter.To)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var typeRows []statRow
	err := m.q.SelectContext(ctx, &typeRows, `
		SELECT transaction_type AS bucket, COUNT(*) AS count,
			COALESCE(SUM(quantity), 0) AS quantity, COALESCE(SUM(total_value), 0) AS value
		FROM inventory_transactions`+where+`
		GROUP BY transaction_type`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query type statistics: %w", err)
	}

	var monthRows []statRow
	err = m.q.SelectContext(ctx, &monthRows, `
		SELECT DATE_FORMAT(transaction_date, '%Y-%m') AS bucket, COUNT(*) AS count,
			COALESCE(SUM(quantity), 0) AS quantity, COALESCE(SUM(total_value), 0) AS value
		FROM inventory_transactions`+where+`
		GROUP BY bucket
		ORDER BY bucket`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query month statistics: %w", err)
	}

	order := make(map[domain.TransactionType]int, len(domain.TransactionTypes))
	for i, tt := range domain.TransactionTypes {
		order[tt] = i
	}

	stats := &domain.LedgerStatistics{}
	for _, r := range typeRows {
		stats.ByType = append(stats.ByType, domain.TypeStatistic{
			TransactionType: domain.TransactionType(r.Key),
			Count:           r.Count,
			Quantity:        r.Quantity,
			Value:           r.Value,
		})
	}
	sort.Slice(stats.ByType, func(i, j int) bool {
		return order[stats.ByType[i].TransactionType] < order[stats.ByType[j].TransactionType]
	})
	for _, r := range monthRows {
		stats.ByMonth = append(stats.ByMonth, domain.MonthStatistic{
			Month:    r.Key,
			Count:    r.Count,
			Quantity: r.Quantity,
			Value:    r.Value,
		})
	}
	return stats, nil
}

type locationRow struct {
	ID               string    `db:"id"`
	Name             string    `db:"name"`
	Code             string    `db:"code"`
	Capacity         int       `db:"capacity"`
	CurrentOccupancy int       `db:"current_occupancy"`
	IsActive         bool      `db:"is_active"`
	IsDefault        bool      `db:"is_default"`
	UpdatedAt        time.Time `db:"updated_at"`
}

const locationColumns = `id, name, code, capacity, current_occupancy, is_active, is_default, updated_at`

func (r locationRow) toDomain() *domain.Location {
	return &domain.Location{
		ID:               r.ID,
		Name:             r.Name,
		Code:             r.Code,
		Capacity:         r.Capacity,
		CurrentOccupancy: r.CurrentOccupancy,
		IsActive:         r.IsActive,
		IsDefault:        r.IsDefault,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (m *mysqlRepo) getLocation(ctx context.Context, query string, args ...any) (*domain.Location, error) {
	var row locationRow
	err := m.q.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query location: %w", err)
	}
	return row.toDomain(), nil
}

func (m *mysqlRepo) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return m.getLocation(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)
}

func (m *mysqlRepo) GetLocationForUpdate(ctx context.Context, id string) (*domain.Location, error) {
	return m.getLocation(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ? FOR UPDATE`, id)
}

func (m *mysqlRepo) GetDefaultLocation(ctx context.Context) (*domain.Location, error) {
	return m.getLocation(ctx, `SELECT `+locationColumns+` FROM locations WHERE default_marker = 1`)
}

func (m *mysqlRepo) GetDefaultLocationForUpdate(ctx context.Context) (*domain.Location, error) {
	return m.getLocation(ctx, `SELECT `+locationColumns+` FROM locations WHERE default_marker = 1 FOR UPDATE`)
}

func (m *mysqlRepo) InsertLocation(ctx context.Context, loc *domain.Location) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO locations (`+locationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		loc.ID, loc.Name, loc.Code, loc.Capacity, loc.CurrentOccupancy, loc.IsActive, loc.IsDefault, loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (m *mysqlRepo) UpdateLocation(ctx context.Context, loc *domain.Location) error {
	_, err := m.q.ExecContext(ctx, `
		UPDATE locations
		SET name = ?, code = ?, capacity = ?, current_occupancy = ?, is_active = ?, is_default = ?, updated_at = ?
		WHERE id = ?`,
		loc.Name, loc.Code, loc.Capacity, loc.CurrentOccupancy, loc.IsActive, loc.IsDefault, loc.UpdatedAt,
		loc.ID,
	)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

func (m *mysqlRepo) ClearDefaultLocation(ctx context.Context, keepID string) error {
	_, err := m.q.ExecContext(ctx, `UPDATE locations SET is_default = 0 WHERE default_marker = 1 AND id <> ?`, keepID)
	if err != nil {
		return fmt.Errorf("clear default location: %w", err)
	}
	return nil
}

type requestRow struct {
	ID               string         `db:"id"`
	ItemID           string         `db:"item_id"`
	RequestedBy      string         `db:"requested_by"`
	Quantity         int            `db:"quantity"`
	ApprovedQuantity int            `db:"approved_quantity"`
	Status           string         `db:"status"`
	AssignedItemID   sql.NullString `db:"assigned_item_id"`
	ApprovedBy       sql.NullString `db:"approved_by"`
	ApprovedDate     sql.NullTime   `db:"approved_date"`
	Reason           string         `db:"reason"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

const requestColumns = `id, item_id, requested_by, quantity, approved_quantity, status,
	assigned_item_id, approved_by, approved_date, reason, created_at, updated_at`

func (r requestRow) toDomain() *domain.Request {
	return &domain.Request{
		ID:               r.ID,
		ItemID:           r.ItemID,
		RequestedBy:      r.RequestedBy,
		Quantity:         r.Quantity,
		ApprovedQuantity: r.ApprovedQuantity,
		Status:           domain.RequestStatus(r.Status),
		AssignedItemID:   nullString(r.AssignedItemID),
		ApprovedBy:       nullString(r.ApprovedBy),
		ApprovedDate:     nullTime(r.ApprovedDate),
		Reason:           r.Reason,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (m *mysqlRepo) getRequest(ctx context.Context, query string, args ...any) (*domain.Request, error) {
	var row requestRow
	err := m.q.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	return row.toDomain(), nil
}

func (m *mysqlRepo) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	return m.getRequest(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
}

func (m *mysqlRepo) GetRequestForUpdate(ctx context.Context, id string) (*domain.Request, error) {
	return m.getRequest(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ? FOR UPDATE`, id)
}

func (m *mysqlRepo) InsertRequest(ctx context.Context, r *domain.Request) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ItemID, r.RequestedBy, r.Quantity, r.ApprovedQuantity, string(r.Status),
		r.AssignedItemID, r.ApprovedBy, r.ApprovedDate, r.Reason, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (m *mysqlRepo) UpdateRequest(ctx context.Context, r *domain.Request) error {
	_, err := m.q.ExecContext(ctx, `
		UPDATE requests
		SET approved_quantity = ?, status = ?, assigned_item_id = ?, approved_by = ?,
			approved_date = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		r.ApprovedQuantity, string(r.Status), r.AssignedItemID, r.ApprovedBy,
		r.ApprovedDate, r.Reason, r.UpdatedAt,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

func (m *mysqlRepo) DeleteRequestsByItem(ctx context.Context, itemID string) (int64, error) {
	return m.deleteWhere(ctx, `DELETE FROM requests WHERE item_id = ? OR assigned_item_id = ?`, itemID, itemID)
}

type returnRequestRow struct {
	ID           string         `db:"id"`
	ItemID       string         `db:"item_id"`
	RequestID    sql.NullString `db:"request_id"`
	RequestedBy  string         `db:"requested_by"`
	Status       string         `db:"status"`
	ResolvedBy   sql.NullString `db:"resolved_by"`
	ResolvedDate sql.NullTime   `db:"resolved_date"`
	CreatedAt    time.Time      `db:"created_at"`
}

const returnRequestColumns = `id, item_id, request_id, requested_by, status, resolved_by, resolved_date, created_at`

func (m *mysqlRepo) GetReturnRequestForUpdate(ctx context.Context, id string) (*domain.ReturnRequest, error) {
	var row returnRequestRow
	err := m.q.GetContext(ctx, &row, `SELECT `+returnRequestColumns+` FROM return_requests WHERE id = ? FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query return request: %w", err)
	}
	return &domain.ReturnRequest{
		ID:           row.ID,
		ItemID:       row.ItemID,
		RequestID:    nullString(row.RequestID),
		RequestedBy:  row.RequestedBy,
		Status:       domain.RequestStatus(row.Status),
		ResolvedBy:   nullString(row.ResolvedBy),
		ResolvedDate: nullTime(row.ResolvedDate),
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (m *mysqlRepo) InsertReturnRequest(ctx context.Context, r *domain.ReturnRequest) error {
	_, err := m.q.ExecContext(ctx, `
		INSERT INTO return_requests (`+returnRequestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ItemID, r.RequestID, r.RequestedBy, string(r.Status), r.ResolvedBy, r.ResolvedDate, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert return request: %w", err)
	}
	return nil
}

func (m *mysqlRepo) UpdateReturnRequest(ctx context.Context, r *domain.ReturnRequest) error {
	_, err := m.q.ExecContext(ctx, `
		UPDATE return_requests SET status = ?, resolved_by = ?, resolved_date = ? WHERE id = ?`,
		string(r.Status), r.ResolvedBy, r.ResolvedDate, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update return request: %w", err)
	}
	return nil
}

func (m *mysqlRepo) DeleteReturnRequestsByItem(ctx context.Context, itemID string) (int64, error) {
	return m.deleteWhere(ctx, `DELETE FROM return_requests WHERE item_id = ?`, itemID)
}

func (m *mysqlRepo) deleteWhere(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := m.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateKey
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
