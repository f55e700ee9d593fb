package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sequence_counters (
		id VARCHAR(32) NOT NULL PRIMARY KEY,
		sequence_value BIGINT NOT NULL DEFAULT 0
	) ENGINE=InnoDB`,
	`INSERT IGNORE INTO sequence_counters (id, sequence_value) VALUES ('global', 0)`,
	`CREATE TABLE IF NOT EXISTS locations (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		code VARCHAR(32) NOT NULL DEFAULT '',
		capacity INT NOT NULL,
		current_occupancy INT NOT NULL DEFAULT 0,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		is_default TINYINT(1) NOT NULL DEFAULT 0,
		default_marker TINYINT AS (IF(is_default = 1, 1, NULL)) STORED,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_locations_default (default_marker),
		CONSTRAINT chk_locations_occupancy CHECK (current_occupancy >= 0 AND current_occupancy <= capacity)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id CHAR(36) NOT NULL PRIMARY KEY,
		unique_id VARCHAR(128) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		balance_quantity_in_stock INT NOT NULL DEFAULT 0,
		minimum_stock_level INT NOT NULL DEFAULT 0,
		quantity_per_item INT NOT NULL DEFAULT 0,
		unit_price DECIMAL(20,4) NOT NULL DEFAULT 0,
		status ENUM('available','issued','maintenance','retired') NOT NULL DEFAULT 'available',
		issued_to VARCHAR(255) NULL,
		issued_by VARCHAR(255) NULL,
		issued_date DATETIME(6) NULL,
		expected_return_date DATETIME(6) NULL,
		location_id CHAR(36) NULL,
		asset_category_id VARCHAR(64) NULL,
		financial_year VARCHAR(16) NOT NULL DEFAULT '',
		asset_code VARCHAR(16) NOT NULL DEFAULT '',
		last_modified_by VARCHAR(255) NOT NULL DEFAULT '',
		last_modified_date DATETIME(6) NOT NULL,
		version INT NOT NULL DEFAULT 0,
		created_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_items_unique_id (unique_id),
		KEY idx_items_location (location_id),
		CONSTRAINT chk_items_stock CHECK (balance_quantity_in_stock >= 0)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS inventory_transactions (
		seq BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id CHAR(36) NOT NULL,
		inventory_item_id CHAR(36) NOT NULL,
		transaction_type ENUM('issue','return','adjustment','purchase','disposal','maintenance') NOT NULL,
		quantity INT NOT NULL,
		previous_quantity INT NOT NULL,
		new_quantity INT NOT NULL,
		unit_price DECIMAL(20,4) NOT NULL DEFAULT 0,
		total_value DECIMAL(20,4) NOT NULL DEFAULT 0,
		status ENUM('pending','approved','completed','cancelled') NOT NULL DEFAULT 'completed',
		performed_by VARCHAR(255) NOT NULL DEFAULT '',
		issued_to VARCHAR(255) NULL,
		reason TEXT NOT NULL,
		reference_id CHAR(36) NULL,
		transaction_date DATETIME(6) NOT NULL,
		UNIQUE KEY uq_transactions_id (id),
		KEY idx_transactions_item_date (inventory_item_id, transaction_date, seq),
		KEY idx_transactions_date (transaction_date)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS requests (
		id CHAR(36) NOT NULL PRIMARY KEY,
		item_id CHAR(36) NOT NULL,
		requested_by VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		approved_quantity INT NOT NULL DEFAULT 0,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		assigned_item_id CHAR(36) NULL,
		approved_by VARCHAR(255) NULL,
		approved_date DATETIME(6) NULL,
		reason TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_requests_item (item_id),
		KEY idx_requests_assigned (assigned_item_id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS return_requests (
		id CHAR(36) NOT NULL PRIMARY KEY,
		item_id CHAR(36) NOT NULL,
		request_id CHAR(36) NULL,
		requested_by VARCHAR(255) NOT NULL,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		resolved_by VARCHAR(255) NULL,
		resolved_date DATETIME(6) NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_return_requests_item (item_id)
	) ENGINE=InnoDB`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
