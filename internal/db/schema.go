package db

import "fmt"

// schemaSQL returns the schema initialization SQL. Dates and clock times are
// stored as plain strings ("YYYY-MM-DD", "HH:mm") so that range queries are
// simple lexicographic comparisons and no timezone conversion ever happens
// inside the database.
func schemaSQL(embedDimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- REMINDER TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS reminder SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner_id ON reminder TYPE string;
    DEFINE FIELD IF NOT EXISTS title ON reminder TYPE string;
    DEFINE FIELD IF NOT EXISTS date ON reminder TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS time ON reminder TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS repeat ON reminder TYPE string DEFAULT "none";
    DEFINE FIELD IF NOT EXISTS repeat_until ON reminder TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS tag ON reminder TYPE option<record<tag>>;
    DEFINE FIELD IF NOT EXISTS priority ON reminder TYPE option<record<priority>>;
    DEFINE FIELD IF NOT EXISTS notes ON reminder TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS completed ON reminder TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS created ON reminder TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS reminder_owner ON reminder FIELDS owner_id;
    DEFINE INDEX IF NOT EXISTS reminder_owner_date ON reminder FIELDS owner_id, date;

    -- ==========================================================================
    -- TAXONOMY TABLES
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS tag SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner_id ON tag TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON tag TYPE string;
    DEFINE FIELD IF NOT EXISTS color ON tag TYPE option<string>;
    DEFINE INDEX IF NOT EXISTS tag_owner_name ON tag FIELDS owner_id, name UNIQUE;

    DEFINE TABLE IF NOT EXISTS priority SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS owner_id ON priority TYPE string;
    DEFINE FIELD IF NOT EXISTS name ON priority TYPE string;
    DEFINE FIELD IF NOT EXISTS color ON priority TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS rank ON priority TYPE int DEFAULT 0;
    DEFINE INDEX IF NOT EXISTS priority_owner_name ON priority FIELDS owner_id, name UNIQUE;

    -- ==========================================================================
    -- EMBEDDING TABLE (derived, maintained by the indexer)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS reminder_embedding SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS reminder_id ON reminder_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS owner_id ON reminder_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS content ON reminder_embedding TYPE string;
    DEFINE FIELD IF NOT EXISTS date ON reminder_embedding TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS embedding ON reminder_embedding TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS updated ON reminder_embedding TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS embedding_reminder ON reminder_embedding FIELDS reminder_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS embedding_owner ON reminder_embedding FIELDS owner_id;
    DEFINE INDEX IF NOT EXISTS embedding_vector ON reminder_embedding FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`, embedDimension)
}
