// Package recordstore persists health records and their analysis results in
// SQLite.
package recordstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medanalysis"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/medsearch"
	"github.com/nvtarakanadh/jeeva-ai-backend/internal/scanreport"
)

var ErrNotFound = errors.New("recordstore: not found")

const schema = `
CREATE TABLE IF NOT EXISTS health_records (
	record_id   TEXT PRIMARY KEY,
	patient_id  TEXT NOT NULL,
	record_type TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	file_url    TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_records_patient ON health_records(patient_id, created_at);

CREATE TABLE IF NOT EXISTS ai_insights (
	insight_id    TEXT PRIMARY KEY,
	record_id     TEXT NOT NULL,
	analysis_type TEXT NOT NULL,
	confidence    REAL NOT NULL DEFAULT 0,
	origin        TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL DEFAULT '',
	payload       TEXT NOT NULL DEFAULT '{}',
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_insights_record ON ai_insights(record_id, created_at);

CREATE TABLE IF NOT EXISTS scan_analyses (
	analysis_id TEXT PRIMARY KEY,
	record_id   TEXT NOT NULL,
	scan_type   TEXT NOT NULL DEFAULT '',
	urgency     TEXT NOT NULL DEFAULT 'routine',
	payload     TEXT NOT NULL DEFAULT '{}',
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_analyses_record ON scan_analyses(record_id, created_at);

CREATE TABLE IF NOT EXISTS medicine_cache (
	name       TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	payload    TEXT NOT NULL DEFAULT '{}',
	fetched_at TEXT NOT NULL
);
`

// Store wraps SQLite persistence for records, analysis results and the
// medicine lookup cache.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path. ":memory:" gives an ephemeral
// store.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type HealthRecord struct {
	RecordID    string    `db:"record_id" json:"record_id"`
	PatientID   string    `db:"patient_id" json:"patient_id"`
	RecordType  string    `db:"record_type" json:"record_type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	FileURL     string    `db:"file_url" json:"file_url,omitempty"`
	CreatedAt   time.Time `db:"-" json:"created_at"`

	CreatedAtRaw string `db:"created_at" json:"-"`
}

type Insight struct {
	InsightID    string  `db:"insight_id" json:"insight_id"`
	RecordID     string  `db:"record_id" json:"record_id"`
	AnalysisType string  `db:"analysis_type" json:"analysis_type"`
	Confidence   float64 `db:"confidence" json:"confidence"`
	Origin       string  `db:"origin" json:"origin"`
	Summary      string  `db:"summary" json:"summary"`
	Payload      string  `db:"payload" json:"-"`
	CreatedAtRaw string  `db:"created_at" json:"created_at"`
}

// Result decodes the stored analysis payload.
func (i Insight) Result() (medanalysis.AnalysisResult, error) {
	var res medanalysis.AnalysisResult
	err := json.Unmarshal([]byte(i.Payload), &res)
	return res, err
}

func (s *Store) CreateRecord(ctx context.Context, r HealthRecord) (HealthRecord, error) {
	if r.PatientID == "" {
		return HealthRecord{}, errors.New("recordstore: patient_id required")
	}
	if r.RecordID == "" {
		r.RecordID = newID("rec")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.CreatedAtRaw = r.CreatedAt.Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_records (record_id, patient_id, record_type, title, description, file_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RecordID, r.PatientID, r.RecordType, r.Title, r.Description, r.FileURL, r.CreatedAtRaw)
	if err != nil {
		return HealthRecord{}, fmt.Errorf("insert record: %w", err)
	}
	return r, nil
}

func (s *Store) GetRecord(ctx context.Context, recordID string) (HealthRecord, error) {
	var r HealthRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM health_records WHERE record_id = ?`, recordID)
	if errors.Is(err, sql.ErrNoRows) {
		return HealthRecord{}, ErrNotFound
	}
	if err != nil {
		return HealthRecord{}, err
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAtRaw)
	return r, nil
}

func (s *Store) ListRecords(ctx context.Context, patientID string) ([]HealthRecord, error) {
	var rows []HealthRecord
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM health_records WHERE patient_id = ? ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].CreatedAt, _ = time.Parse(time.RFC3339Nano, rows[i].CreatedAtRaw)
	}
	return rows, nil
}

// SaveInsight persists one analysis result against a record.
func (s *Store) SaveInsight(ctx context.Context, recordID string, res medanalysis.AnalysisResult, origin medanalysis.Origin) (Insight, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return Insight{}, fmt.Errorf("encode result: %w", err)
	}
	ins := Insight{
		InsightID:    newID("ins"),
		RecordID:     recordID,
		AnalysisType: res.AnalysisType,
		Confidence:   res.Confidence,
		Origin:       string(origin),
		Summary:      res.Summary,
		Payload:      string(payload),
		CreatedAtRaw: time.Now().UTC().Format(time.RFC3339Nano),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_insights (insight_id, record_id, analysis_type, confidence, origin, summary, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ins.InsightID, ins.RecordID, ins.AnalysisType, ins.Confidence, ins.Origin, ins.Summary, ins.Payload, ins.CreatedAtRaw)
	if err != nil {
		return Insight{}, fmt.Errorf("insert insight: %w", err)
	}
	return ins, nil
}

// LatestInsight returns the most recent analysis for a record.
func (s *Store) LatestInsight(ctx context.Context, recordID string) (Insight, error) {
	var ins Insight
	err := s.db.GetContext(ctx, &ins, `
		SELECT * FROM ai_insights WHERE record_id = ?
		ORDER BY created_at DESC, insight_id DESC LIMIT 1`, recordID)
	if errors.Is(err, sql.ErrNoRows) {
		return Insight{}, ErrNotFound
	}
	return ins, err
}

func (s *Store) ListInsights(ctx context.Context, recordID string) ([]Insight, error) {
	var rows []Insight
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM ai_insights WHERE record_id = ? ORDER BY created_at DESC, insight_id DESC`, recordID)
	return rows, err
}

// SaveScanAnalysis persists one scan reading against a record.
func (s *Store) SaveScanAnalysis(ctx context.Context, recordID string, a scanreport.ScanAnalysis) (string, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("encode scan analysis: %w", err)
	}
	id := newID("scan")
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_analyses (analysis_id, record_id, scan_type, urgency, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, recordID, a.ScanType, string(a.Urgency), string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert scan analysis: %w", err)
	}
	return id, nil
}

// CacheMedicineInfo upserts a lookup result so repeat requests skip the
// search API.
func (s *Store) CacheMedicineInfo(ctx context.Context, res medsearch.FetchResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode medicine result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO medicine_cache (name, status, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET status = excluded.status,
			payload = excluded.payload, fetched_at = excluded.fetched_at`,
		res.Name, string(res.Status), string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// CachedMedicineInfo returns a cached lookup no older than maxAge.
func (s *Store) CachedMedicineInfo(ctx context.Context, name string, maxAge time.Duration) (medsearch.FetchResult, error) {
	var row struct {
		Payload   string `db:"payload"`
		FetchedAt string `db:"fetched_at"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT payload, fetched_at FROM medicine_cache WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return medsearch.FetchResult{}, ErrNotFound
	}
	if err != nil {
		return medsearch.FetchResult{}, err
	}
	fetched, err := time.Parse(time.RFC3339Nano, row.FetchedAt)
	if err != nil || time.Since(fetched) > maxAge {
		return medsearch.FetchResult{}, ErrNotFound
	}
	var res medsearch.FetchResult
	if err := json.Unmarshal([]byte(row.Payload), &res); err != nil {
		return medsearch.FetchResult{}, err
	}
	return res, nil
}

func newID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
