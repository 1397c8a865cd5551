package repos

import (
	"encoding/json"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"partforge/internal/compat"
	"partforge/internal/domain"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed the component catalog if the DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure prebuilt configurations exist (idempotent; safe to run every start)
	if err := seedPrebuilts(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Component catalog (read-only at request time; ids are scoped per category)
CREATE TABLE IF NOT EXISTS components(
  id TEXT NOT NULL,
  category TEXT NOT NULL CHECK (category IN
    ('cpu','motherboard','ram','gpu','storage','power_supply','case','cooling')),
  name TEXT NOT NULL,
  price NUMERIC NOT NULL CHECK (price >= 0),
  attrs_json TEXT NOT NULL DEFAULT '{}',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(category, id)
);
CREATE INDEX IF NOT EXISTS idx_components_category ON components(category);

-- Carts: one per identity, holding at most one priced snapshot or build ref
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  owner_type TEXT NOT NULL CHECK (owner_type IN ('USER','SESSION')),
  owner_ref TEXT NOT NULL,
  snapshot_json TEXT,
  build_id TEXT,
  quantity INTEGER NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL DEFAULT 0,
  updated_at TEXT,
  UNIQUE(owner_type, owner_ref)
);

-- Orders: immutable except status, payment_reference, gateway-refined
-- shipping and updated_at; never deleted
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  cart_id TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  total_amount NUMERIC NOT NULL,
  customer_json TEXT NOT NULL,
  shipping_json TEXT NOT NULL,
  snapshot_json TEXT NOT NULL,
  payment_reference TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_payment_ref ON orders(payment_reference);
CREATE INDEX IF NOT EXISTS idx_orders_created_at  ON orders(created_at);

-- Gateway event dedupe: first insert wins, redeliveries are no-ops
CREATE TABLE IF NOT EXISTS payment_events(
  event_id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  received_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Saved builds (user-named) and seeded prebuilt configurations
CREATE TABLE IF NOT EXISTS builds(
  id TEXT PRIMARY KEY,
  owner_ref TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  description TEXT,
  is_public INTEGER NOT NULL DEFAULT 0,
  tier TEXT NOT NULL DEFAULT '',
  config_json TEXT NOT NULL,
  total_price NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_builds_owner ON builds(owner_ref);

-- Working configurations for the builder flow, keyed by session token
CREATE TABLE IF NOT EXISTS selections(
  session_id TEXT PRIMARY KEY,
  config_json TEXT NOT NULL DEFAULT '{}',
  updated_at TEXT
);
`
	_, err := db.Exec(schema)
	return err
}

type seedComponent struct {
	ID    string
	Name  string
	Price float64
	Attrs map[string]any
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM components`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo component catalog")

	catalog := map[string][]seedComponent{
		"cpu": {
			{"cpu-7600x", "Ryzen 5 7600X", 299.99, map[string]any{"socket": "AM5", "tdp": 105, "cores": 6}},
			{"cpu-7800x3d", "Ryzen 7 7800X3D", 449.00, map[string]any{"socket": "AM5", "tdp": 120, "cores": 8}},
			{"cpu-13600k", "Core i5-13600K", 319.00, map[string]any{"socket": "LGA1700", "tdp": 125, "cores": 14}},
			{"cpu-13900k", "Core i9-13900K", 589.00, map[string]any{"socket": "LGA1700", "tdp": 253, "cores": 24}},
		},
		"motherboard": {
			{"mobo-b650", "B650 Tomahawk", 219.99, map[string]any{"socket": "AM5", "ram_type": "DDR5", "form_factor": "ATX"}},
			{"mobo-b650m", "B650M Mortar", 179.99, map[string]any{"socket": "AM5", "ram_type": "DDR5", "form_factor": "Micro-ATX"}},
			{"mobo-z790", "Z790 Aorus Elite", 249.99, map[string]any{"socket": "LGA1700", "ram_type": "DDR5", "form_factor": "ATX"}},
			{"mobo-b660", "B660M DS3H", 129.99, map[string]any{"socket": "LGA1700", "ram_type": "DDR4", "form_factor": "Micro-ATX"}},
		},
		"ram": {
			{"ram-ddr5-32", "Vengeance 32GB DDR5-6000", 114.99, map[string]any{"type": "DDR5", "capacity_gb": 32}},
			{"ram-ddr5-64", "Trident Z5 64GB DDR5-6400", 239.99, map[string]any{"type": "DDR5", "capacity_gb": 64}},
			{"ram-ddr4-32", "Ripjaws V 32GB DDR4-3600", 69.99, map[string]any{"type": "DDR4", "capacity_gb": 32}},
		},
		"gpu": {
			{"gpu-4070s", "GeForce RTX 4070 Super", 599.00, map[string]any{"tdp": 220, "vram_gb": 12}},
			{"gpu-4090", "GeForce RTX 4090", 1599.00, map[string]any{"tdp": 450, "vram_gb": 24}},
			{"gpu-7800xt", "Radeon RX 7800 XT", 499.00, map[string]any{"tdp": 263, "vram_gb": 16}},
		},
		"storage": {
			{"ssd-sn850x", "WD Black SN850X 1TB", 89.99, map[string]any{"capacity_gb": 1000, "interface": "NVMe"}},
			{"ssd-990pro", "Samsung 990 Pro 2TB", 169.99, map[string]any{"capacity_gb": 2000, "interface": "NVMe"}},
		},
		"power_supply": {
			{"psu-550", "CX550M 550W Bronze", 64.99, map[string]any{"wattage": 550, "rating": "Bronze"}},
			{"psu-750", "RM750e 750W Gold", 99.99, map[string]any{"wattage": 750, "rating": "Gold"}},
			{"psu-1000", "HX1000i 1000W Platinum", 229.99, map[string]any{"wattage": 1000, "rating": "Platinum"}},
		},
		"case": {
			{"case-4000d", "4000D Airflow", 94.99, map[string]any{"form_factor": "ATX"}},
			{"case-nr200", "NR200P", 99.99, map[string]any{"form_factor": "Micro-ATX"}},
		},
		"cooling": {
			{"cool-peerless", "Peerless Assassin 120", 35.99, map[string]any{"kind": "air"}},
			{"cool-lf2-280", "Liquid Freezer II 280", 119.99, map[string]any{"kind": "aio"}},
		},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for category, comps := range catalog {
		for _, c := range comps {
			attrs, err := json.Marshal(c.Attrs)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(
				`INSERT INTO components(id, category, name, price, attrs_json) VALUES(?,?,?,?,?)`,
				c.ID, category, c.Name, c.Price, string(attrs)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// seedPrebuilts ensures the stock prebuilt configurations exist. Safe to run
// on every startup (idempotent). Totals are not hard-coded: each config is
// priced through the same evaluator the cart uses, so the advertised price
// always equals what adding the build to a cart will charge.
func seedPrebuilts(db *sqlx.DB) error {
	type prebuilt struct {
		ID, Name, Desc, Tier string
		Config               domain.Configuration
	}
	prebuilts := []prebuilt{
		{
			ID: "pb-starter", Name: "Starter 1080p Gamer", Tier: "budget",
			Desc: "Entry-level gaming on a budget.",
			Config: domain.Configuration{
				domain.CategoryCPU: "cpu-13600k", domain.CategoryMotherboard: "mobo-b660",
				domain.CategoryRAM: "ram-ddr4-32", domain.CategoryGPU: "gpu-7800xt",
				domain.CategoryStorage: "ssd-sn850x", domain.CategoryPowerSupply: "psu-750",
				domain.CategoryCase: "case-nr200", domain.CategoryCooling: "cool-peerless",
			},
		},
		{
			ID: "pb-creator", Name: "Creator Workstation", Tier: "productivity",
			Desc: "Plenty of cores and memory for creative workloads.",
			Config: domain.Configuration{
				domain.CategoryCPU: "cpu-7800x3d", domain.CategoryMotherboard: "mobo-b650",
				domain.CategoryRAM: "ram-ddr5-64", domain.CategoryGPU: "gpu-4070s",
				domain.CategoryStorage: "ssd-990pro", domain.CategoryPowerSupply: "psu-750",
				domain.CategoryCase: "case-4000d", domain.CategoryCooling: "cool-lf2-280",
			},
		},
		{
			ID: "pb-flagship", Name: "Flagship 4K Gamer", Tier: "gaming",
			Desc: "No-compromise 4K gaming build.",
			Config: domain.Configuration{
				domain.CategoryCPU: "cpu-13900k", domain.CategoryMotherboard: "mobo-z790",
				domain.CategoryRAM: "ram-ddr5-64", domain.CategoryGPU: "gpu-4090",
				domain.CategoryStorage: "ssd-990pro", domain.CategoryPowerSupply: "psu-1000",
				domain.CategoryCase: "case-4000d", domain.CategoryCooling: "cool-lf2-280",
			},
		},
	}

	catalog := NewComponentRepo(db)

	// Price every config before opening the transaction: the evaluator queries
	// through the pool, and a second connection to a `:memory:` DSN would be a
	// separate empty database.
	totals := make([]decimal.Decimal, len(prebuilts))
	cfgs := make([]string, len(prebuilts))
	for i, p := range prebuilts {
		_, total, err := compat.Evaluate(catalog, p.Config)
		if err != nil {
			return err
		}
		cfg, err := json.Marshal(p.Config)
		if err != nil {
			return err
		}
		totals[i], cfgs[i] = total, string(cfg)
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for i, p := range prebuilts {
		total, cfg := totals[i], cfgs[i]
		if _, err := tx.Exec(`
			INSERT INTO builds(id, owner_ref, name, description, is_public, tier, config_json, total_price)
			SELECT ?, '', ?, ?, 1, ?, ?, ?
			WHERE NOT EXISTS (SELECT 1 FROM builds WHERE id = ?)
		`, p.ID, p.Name, p.Desc, p.Tier, cfg, total, p.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
