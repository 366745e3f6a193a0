package store

const schema = `
CREATE TABLE IF NOT EXISTS price_history (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    product_id     TEXT NOT NULL,
    retailer       TEXT NOT NULL,
    price          REAL NOT NULL,
    original_price REAL NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    url            TEXT NOT NULL DEFAULT '',
    timestamp      DATETIME NOT NULL,
    UNIQUE(product_id, retailer, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_history_product_retailer ON price_history(product_id, retailer);
CREATE INDEX IF NOT EXISTS idx_history_timestamp ON price_history(timestamp);

CREATE TABLE IF NOT EXISTS deal_results (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    payload    TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_created ON deal_results(created_at);
`
