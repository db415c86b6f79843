package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/manikandavelraja/AI-QUOTATION-APP-sub000/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS catalog_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  normalizedName TEXT NOT NULL,
  code TEXT,
  description TEXT,
  unit TEXT,
  unitPrice REAL NOT NULL DEFAULT 0,
  currency TEXT,
  updatedAt TEXT,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(normalizedName)
);
CREATE INDEX IF NOT EXISTS idx_catalog_code ON catalog_items(code);

CREATE TABLE IF NOT EXISTS inquiries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  messageId TEXT NOT NULL,
  threadId TEXT,
  subject TEXT,
  sender TEXT,
  customerName TEXT,
  customerEmail TEXT,
  customerAddress TEXT,
  linesJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS quotations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quotationNumber TEXT NOT NULL UNIQUE,
  quotationDate TEXT NOT NULL,
  validityDate TEXT NOT NULL,
  customerName TEXT,
  customerEmail TEXT,
  customerAddress TEXT,
  totalAmount REAL NOT NULL,
  currency TEXT NOT NULL,
  notes TEXT,
  status TEXT NOT NULL,
  inquiryId INTEGER,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(inquiryId) REFERENCES inquiries(id)
);

CREATE TABLE IF NOT EXISTS quotation_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  quotationId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  itemName TEXT NOT NULL,
  itemCode TEXT,
  description TEXT,
  quantity REAL NOT NULL,
  unit TEXT,
  unitPrice REAL NOT NULL,
  total REAL NOT NULL,
  isPriced INTEGER NOT NULL,
  status TEXT NOT NULL,
  FOREIGN KEY(quotationId) REFERENCES quotations(id)
);

CREATE TABLE IF NOT EXISTS quotation_threads (
  quotationId INTEGER PRIMARY KEY,
  threadId TEXT,
  messageId TEXT,
  ccJson TEXT NOT NULL,
  FOREIGN KEY(quotationId) REFERENCES quotations(id)
);

CREATE TABLE IF NOT EXISTS purchase_orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  customerName TEXT,
  reference TEXT,
  linesJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS processed_messages (
  channel TEXT NOT NULL,
  messageId TEXT NOT NULL,
  processedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(channel, messageId)
);

CREATE TABLE IF NOT EXISTS counters (
  key TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// IncrementAndGet bumps a durable counter and returns its new value. The
// upsert runs as one statement so concurrent callers never observe the same
// value, even across processes sharing the database file.
func (d *DB) IncrementAndGet(key string) (int64, error) {
	var value int64
	err := d.conn.QueryRow(`
INSERT INTO counters (key, value) VALUES (?, 1)
ON CONFLICT(key) DO UPDATE SET value = value + 1
RETURNING value
`, key).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (d *DB) UpsertCatalogItems(items []internal.CatalogItem, normalize func(string) string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO catalog_items (name, normalizedName, code, description, unit, unitPrice, currency, updatedAt, lastSeenAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(normalizedName) DO UPDATE SET
  name=excluded.name,
  code=excluded.code,
  description=excluded.description,
  unit=excluded.unit,
  unitPrice=excluded.unitPrice,
  currency=excluded.currency,
  updatedAt=excluded.updatedAt,
  lastSeenAt=CURRENT_TIMESTAMP
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.Name, normalize(item.Name), item.Code, item.Description, item.Unit, item.UnitPrice, item.Currency, item.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListCatalogItems() ([]internal.CatalogItem, error) {
	rows, err := d.conn.Query(`
SELECT id, name, code, description, unit, unitPrice, currency, COALESCE(updatedAt, '')
FROM catalog_items`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogItem
	for rows.Next() {
		var item internal.CatalogItem
		var code, description, unit, currency sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &code, &description, &unit, &item.UnitPrice, &currency, &item.UpdatedAt); err != nil {
			return nil, err
		}
		item.Code = code.String
		item.Description = description.String
		item.Unit = unit.String
		item.Currency = currency.String
		out = append(out, item)
	}

	return out, rows.Err()
}

func (d *DB) InsertInquiry(rec internal.InquiryRecord) (int64, error) {
	linesJSON, _ := json.Marshal(rec.Lines)
	result, err := d.conn.Exec(`
INSERT INTO inquiries (messageId, threadId, subject, sender, customerName, customerEmail, customerAddress, linesJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rec.MessageID, rec.ThreadID, rec.Subject, rec.Sender, rec.CustomerName, rec.CustomerEmail, rec.CustomerAddress, string(linesJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertQuotation persists a quotation with its items in one transaction.
// A quotation without items is rejected.
func (d *DB) InsertQuotation(q *internal.Quotation) (int64, error) {
	if len(q.Items) == 0 {
		return 0, errors.New("quotation has no items")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
INSERT INTO quotations (quotationNumber, quotationDate, validityDate, customerName, customerEmail, customerAddress, totalAmount, currency, notes, status, inquiryId)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, q.QuotationNumber, q.QuotationDate.UTC().Format(time.RFC3339), q.ValidityDate.UTC().Format(time.RFC3339),
		q.CustomerName, q.CustomerEmail, q.CustomerAddress, q.TotalAmount, q.Currency, q.Notes, string(q.Status), nullableID(q.InquiryID))
	if err != nil {
		return 0, err
	}
	quotationID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`
INSERT INTO quotation_items (quotationId, position, itemName, itemCode, description, quantity, unit, unitPrice, total, isPriced, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, item := range q.Items {
		if _, err := stmt.Exec(quotationID, i+1, item.ItemName, item.ItemCode, item.Description, item.Quantity, item.Unit, item.UnitPrice, item.Total, boolToInt(item.IsPriced), string(item.Status)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	q.ID = quotationID
	return quotationID, nil
}

func (d *DB) InsertThreadRef(ref internal.ThreadRef) error {
	ccJSON, _ := json.Marshal(ref.CC)
	_, err := d.conn.Exec(`
INSERT INTO quotation_threads (quotationId, threadId, messageId, ccJson)
VALUES (?, ?, ?, ?)
ON CONFLICT(quotationId) DO UPDATE SET
  threadId=excluded.threadId,
  messageId=excluded.messageId,
  ccJson=excluded.ccJson
`, ref.QuotationID, ref.ThreadID, ref.MessageID, string(ccJSON))
	return err
}

func (d *DB) GetThreadRef(quotationID int64) (*internal.ThreadRef, error) {
	var ref internal.ThreadRef
	var ccJSON string
	err := d.conn.QueryRow(`
SELECT quotationId, COALESCE(threadId, ''), COALESCE(messageId, ''), ccJson
FROM quotation_threads WHERE quotationId = ?
`, quotationID).Scan(&ref.QuotationID, &ref.ThreadID, &ref.MessageID, &ccJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(ccJSON), &ref.CC)
	return &ref, nil
}

func (d *DB) InsertPurchaseOrder(rec internal.PurchaseOrderRecord) (int64, error) {
	linesJSON, _ := json.Marshal(rec.Lines)
	result, err := d.conn.Exec(`
INSERT INTO purchase_orders (messageId, subject, sender, customerName, reference, linesJson)
VALUES (?, ?, ?, ?, ?, ?)
`, rec.MessageID, rec.Subject, rec.Sender, rec.CustomerName, rec.Reference, string(linesJSON))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) MarkMessageProcessed(channel internal.SyncChannel, messageID string) error {
	_, err := d.conn.Exec(`
INSERT INTO processed_messages (channel, messageId) VALUES (?, ?)
ON CONFLICT(channel, messageId) DO NOTHING
`, string(channel), messageID)
	return err
}

func (d *DB) IsMessageProcessed(channel internal.SyncChannel, messageID string) (bool, error) {
	var one int
	err := d.conn.QueryRow(`
SELECT 1 FROM processed_messages WHERE channel = ? AND messageId = ?
`, string(channel), messageID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *DB) GetQuotationByNumber(number string) (*internal.Quotation, error) {
	var q internal.Quotation
	var quotationDate, validityDate, createdAt string
	var notes, customerName, customerEmail, customerAddress sql.NullString
	var inquiryID sql.NullInt64
	var status string
	err := d.conn.QueryRow(`
SELECT id, quotationNumber, quotationDate, validityDate, customerName, customerEmail, customerAddress, totalAmount, currency, notes, status, inquiryId, createdAt
FROM quotations WHERE quotationNumber = ?
`, number).Scan(&q.ID, &q.QuotationNumber, &quotationDate, &validityDate, &customerName, &customerEmail, &customerAddress,
		&q.TotalAmount, &q.Currency, &notes, &status, &inquiryID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	q.CustomerName = customerName.String
	q.CustomerEmail = customerEmail.String
	q.CustomerAddress = customerAddress.String
	q.Notes = notes.String
	q.Status = internal.QuotationStatus(status)
	q.InquiryID = inquiryID.Int64
	q.QuotationDate, _ = time.Parse(time.RFC3339, quotationDate)
	q.ValidityDate, _ = time.Parse(time.RFC3339, validityDate)
	q.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)

	items, err := d.listQuotationItems(q.ID)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return &q, nil
}

func (d *DB) listQuotationItems(quotationID int64) ([]internal.QuotationItem, error) {
	rows, err := d.conn.Query(`
SELECT itemName, COALESCE(itemCode, ''), COALESCE(description, ''), quantity, COALESCE(unit, ''), unitPrice, total, isPriced, status
FROM quotation_items WHERE quotationId = ? ORDER BY position ASC
`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.QuotationItem
	for rows.Next() {
		var item internal.QuotationItem
		var isPriced int
		var status string
		if err := rows.Scan(&item.ItemName, &item.ItemCode, &item.Description, &item.Quantity, &item.Unit, &item.UnitPrice, &item.Total, &isPriced, &status); err != nil {
			return nil, err
		}
		item.IsPriced = isPriced != 0
		item.Status = internal.ItemStatus(status)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
