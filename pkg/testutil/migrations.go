package testutil

// SchemaMigrations returns the inventory schema in execution order.
func SchemaMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT categories_name_key UNIQUE (name)
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(50),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT suppliers_name_key UNIQUE (name)
		)`,
		`CREATE TABLE IF NOT EXISTS locations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT locations_name_key UNIQUE (name)
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			sku VARCHAR(100) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			unit VARCHAR(50) NOT NULL,
			minimum_stock NUMERIC(12,2) NOT NULL DEFAULT 0,
			category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
			supplier_id UUID REFERENCES suppliers(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT inventory_items_sku_key UNIQUE (sku)
		)`,
		`CREATE TABLE IF NOT EXISTS stock_lots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			item_id UUID NOT NULL REFERENCES inventory_items(id) ON DELETE RESTRICT,
			lot_number VARCHAR(100) NOT NULL,
			location_id UUID REFERENCES locations(id) ON DELETE SET NULL,
			expiry_date DATE NOT NULL,
			unit_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
			initial_quantity NUMERIC(12,2) NOT NULL,
			current_quantity NUMERIC(12,2) NOT NULL,
			received_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT stock_lots_item_lot_number_key UNIQUE (item_id, lot_number),
			CONSTRAINT unit_cost_non_negative CHECK (unit_cost >= 0),
			CONSTRAINT initial_quantity_positive CHECK (initial_quantity > 0),
			CONSTRAINT current_quantity_non_negative CHECK (current_quantity >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_lots_item_expiry
			ON stock_lots (item_id, expiry_date, lot_number)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			item_id UUID NOT NULL REFERENCES inventory_items(id) ON DELETE RESTRICT,
			lot_id UUID NOT NULL REFERENCES stock_lots(id) ON DELETE RESTRICT,
			kind VARCHAR(20) NOT NULL,
			quantity NUMERIC(12,2) NOT NULL,
			performed_by VARCHAR(255) NOT NULL,
			performed_by_name VARCHAR(255),
			note TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT kind_valid CHECK (kind IN ('entry', 'withdrawal', 'adjustment', 'discard')),
			CONSTRAINT movement_quantity_nonzero CHECK (quantity <> 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_item_created
			ON stock_movements (item_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_actor
			ON stock_movements (performed_by)`,
		`CREATE TABLE IF NOT EXISTS requisitions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			item_id UUID NOT NULL REFERENCES inventory_items(id) ON DELETE RESTRICT,
			quantity NUMERIC(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			reason TEXT,
			requested_by VARCHAR(255) NOT NULL,
			requested_by_name VARCHAR(255),
			resolved_by VARCHAR(255),
			resolved_by_name VARCHAR(255),
			resolved_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT status_valid CHECK (status IN ('pending', 'approved', 'rejected')),
			CONSTRAINT quantity_positive CHECK (quantity > 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requisitions_status
			ON requisitions (status, created_at DESC)`,
	}
}

// SchemaTables lists the tables in dependency order for truncation.
func SchemaTables() []string {
	return []string{
		"requisitions",
		"stock_movements",
		"stock_lots",
		"inventory_items",
		"locations",
		"suppliers",
		"categories",
	}
}
