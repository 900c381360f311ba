package sqlite

// Physical schema DDL. Four real tables carry every virtual table:
// tables and names register identities, bvalues content-addresses the
// scalars, items and itemnamevalues hold the rows and their sparse
// attributes. bvaluetext is the fts5 side table behind MATCHES.
var schemaSQL = []string{
	`CREATE TABLE tables
(
id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL UNIQUE,
name TEXT NOT NULL UNIQUE,
isNumeric BOOLEAN NOT NULL
)`,

	`CREATE TABLE names
(
id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL UNIQUE,
tableid INTEGER NOT NULL,
name TEXT NOT NULL,
isNumeric BOOLEAN NOT NULL,
FOREIGN KEY(tableid) REFERENCES tables(id)
)`,
	`CREATE UNIQUE INDEX idx_names_name_tableid ON names (name, tableid)`,

	`CREATE TABLE bvalues
(
id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL UNIQUE,
isNumeric BOOLEAN NOT NULL,
numberValue NUMBER NOT NULL,
stringValue TEXT
)`,
	`CREATE UNIQUE INDEX idx_bvalues_unique ON bvalues (stringValue, numberValue, isNumeric)`,
	`CREATE INDEX idx_bvalues_prefix ON bvalues (stringValue, isNumeric, id)`,
	`CREATE INDEX idx_bvalues_number ON bvalues (numberValue, isNumeric, id)`,
	`CREATE VIRTUAL TABLE bvaluetext USING fts5 (valueid, stringSearchValue)`,

	`CREATE TABLE items
(
id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL UNIQUE,
tableid INTEGER NOT NULL,
valueid INTEGER NOT NULL,
created TIMESTAMP NOT NULL,
lastmodified TIMESTAMP NOT NULL,
FOREIGN KEY(tableid) REFERENCES tables(id),
FOREIGN KEY(valueid) REFERENCES bvalues(id)
)`,
	`CREATE UNIQUE INDEX idx_items_valueid_tableid ON items (valueid, tableid)`,
	`CREATE INDEX idx_items_created ON items (created)`,
	`CREATE INDEX idx_items_lastmodified ON items (lastmodified)`,

	`CREATE TABLE itemnamevalues
(
itemid INTEGER NOT NULL,
nameid INTEGER NOT NULL,
valueid INTEGER NOT NULL,
PRIMARY KEY (itemid, nameid),
FOREIGN KEY(itemid) REFERENCES items(id),
FOREIGN KEY(nameid) REFERENCES names(id),
FOREIGN KEY(valueid) REFERENCES bvalues(id)
)`,

	`CREATE VIEW itemvalues AS
SELECT
inv.itemid AS itemid,
inv.nameid AS nameid,
v.id AS valueid,
v.isNumeric AS isNumeric,
v.numberValue AS numberValue,
v.stringValue AS stringValue
FROM itemnamevalues AS inv
JOIN bvalues AS v ON v.id = inv.valueid`,
}

// bootstrapPragmas run once when the database file is first created.
var bootstrapPragmas = []string{
	`PRAGMA journal_mode = WAL`,
	`PRAGMA synchronous = NORMAL`,
}

// RunSchema creates the physical schema on a fresh database.
func RunSchema(db *DB) error {
	for _, pragma := range bootstrapPragmas {
		if _, err := db.sqlDB.Exec(pragma); err != nil {
			return wrapEngineErr(err)
		}
	}
	for _, stmt := range schemaSQL {
		if _, err := db.sqlDB.Exec(stmt); err != nil {
			return wrapEngineErr(err)
		}
	}
	return nil
}
