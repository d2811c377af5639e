package sqlite

// Table DDL. Every statement is idempotent; the database persists across runs.
const (
	createAttributes = `CREATE TABLE IF NOT EXISTS attributes (
    attribute_id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    value TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (category, value)
);`

	createSources = `CREATE TABLE IF NOT EXISTS sources (
    source_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);`

	createProducts = `CREATE TABLE IF NOT EXISTS products (
    product_id TEXT PRIMARY KEY,
    article_number TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    image_path TEXT NOT NULL,
    size_text TEXT NOT NULL,
    age_text TEXT NOT NULL,
    min_age INTEGER,
    origin_id TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (origin_id) REFERENCES attributes(attribute_id)
);`

	createProductAttributes = `CREATE TABLE IF NOT EXISTS product_attributes (
    product_id TEXT NOT NULL,
    attribute_id TEXT NOT NULL,
    PRIMARY KEY (product_id, attribute_id),
    FOREIGN KEY (product_id) REFERENCES products(product_id),
    FOREIGN KEY (attribute_id) REFERENCES attributes(attribute_id)
);`

	createPriceObservations = `CREATE TABLE IF NOT EXISTS price_observations (
    observation_id TEXT PRIMARY KEY,
    product_id TEXT NOT NULL,
    price TEXT NOT NULL,
    observed_at TEXT NOT NULL,
    source_id TEXT NOT NULL,
    product_url TEXT NOT NULL,
    FOREIGN KEY (product_id) REFERENCES products(product_id),
    FOREIGN KEY (source_id) REFERENCES sources(source_id)
);`
)

// Index DDL.
const (
	idxAttributesCategory       = `CREATE INDEX IF NOT EXISTS idx_attributes_category ON attributes(category);`
	idxProductAttributesAttr    = `CREATE INDEX IF NOT EXISTS idx_product_attributes_attribute ON product_attributes(attribute_id);`
	idxPriceObservationsProduct = `CREATE INDEX IF NOT EXISTS idx_price_observations_product ON price_observations(product_id, observed_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createAttributes,
	createSources,
	createProducts,
	createProductAttributes,
	createPriceObservations,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxAttributesCategory,
	idxProductAttributesAttr,
	idxPriceObservationsProduct,
}
