package repository

import (
	"github.com/quantscan/quantscan-backend/pkg/database"
)

// Migrations returns the schema of the stock service in apply order.
func Migrations() []database.Migration {
	return []database.Migration{
		{Version: 1, Name: "stock_catalog", SQL: catalogSchema},
		{Version: 2, Name: "stock_quants", SQL: quantSchema},
		{Version: 3, Name: "sequences_and_parameters", SQL: settingsSchema},
	}
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS product_templates (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
	id              BIGSERIAL PRIMARY KEY,
	product_tmpl_id BIGINT NOT NULL REFERENCES product_templates(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_products_tmpl ON products(product_tmpl_id);

CREATE TABLE IF NOT EXISTS stock_locations (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	usage      TEXT NOT NULL DEFAULT 'internal',
	company_id BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT stock_locations_usage_valid
		CHECK (usage IN ('internal', 'view', 'supplier', 'customer', 'inventory', 'transit'))
);

CREATE TABLE IF NOT EXISTS stock_lots (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	company_id BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT stock_lots_name_product_key UNIQUE (name, product_id, company_id)
);
CREATE INDEX IF NOT EXISTS idx_stock_lots_name ON stock_lots(name);
`

const quantSchema = `
CREATE TABLE IF NOT EXISTS stock_quants (
	id           BIGSERIAL PRIMARY KEY,
	product_id   BIGINT NOT NULL REFERENCES products(id),
	location_id  BIGINT NOT NULL REFERENCES stock_locations(id),
	lot_id       BIGINT REFERENCES stock_lots(id),
	company_id   BIGINT NOT NULL DEFAULT 1,
	quantity     DOUBLE PRECISION NOT NULL DEFAULT 0,
	scan_barcode TEXT,
	net_weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
	tare_weight  DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT stock_quants_scan_barcode_key UNIQUE (scan_barcode),
	CONSTRAINT stock_quants_weight_non_negative CHECK (net_weight >= 0 AND tare_weight >= 0)
);
CREATE INDEX IF NOT EXISTS idx_stock_quants_product ON stock_quants(product_id);
CREATE INDEX IF NOT EXISTS idx_stock_quants_lot ON stock_quants(lot_id);

-- quant_id has no foreign key: the history outlives consumed quants
CREATE TABLE IF NOT EXISTS stock_adjustments (
	id                BIGSERIAL PRIMARY KEY,
	quant_id          BIGINT NOT NULL,
	previous_quantity DOUBLE PRECISION NOT NULL,
	counted_quantity  DOUBLE PRECISION NOT NULL,
	difference        DOUBLE PRECISION NOT NULL,
	reason            TEXT NOT NULL,
	performed_by      TEXT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stock_adjustments_quant ON stock_adjustments(quant_id);
`

const settingsSchema = `
CREATE TABLE IF NOT EXISTS ir_sequences (
	id          BIGSERIAL PRIMARY KEY,
	code        TEXT NOT NULL,
	prefix      TEXT NOT NULL DEFAULT '',
	padding     INTEGER NOT NULL DEFAULT 0,
	number_next BIGINT NOT NULL DEFAULT 1,
	CONSTRAINT ir_sequences_code_key UNIQUE (code),
	CONSTRAINT ir_sequences_padding_non_negative CHECK (padding >= 0)
);

CREATE TABLE IF NOT EXISTS config_parameters (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
