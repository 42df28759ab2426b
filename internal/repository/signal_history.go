package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// schemaStatements create the signal history table. Outcome updates ride a
// lightweight mutation keyed by (symbol, generated_at).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		generated_at   DateTime64(3),
		symbol         String,
		direction      String,
		confidence     Float64,
		recommendation String,
		position_size  Float64,
		entry_price    Float64,
		stop_loss      Float64,
		take_profit    Float64,
		risk_reward    Float64,
		regime         String,
		reasons        String,
		labeled        UInt8 DEFAULT 0,
		win            UInt8 DEFAULT 0,
		pips           Float64 DEFAULT 0,
		closed_at      DateTime DEFAULT toDateTime(0)
	) ENGINE = MergeTree()
	ORDER BY (symbol, generated_at)`,
}

// ClickHouseSignalHistory implements repository.SignalHistory.
type ClickHouseSignalHistory struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalHistory creates the ClickHouse-backed history.
func NewClickHouseSignalHistory(db *sql.DB) repository.SignalHistory {
	return &ClickHouseSignalHistory{db: db, table: "signals"}
}

func (s *ClickHouseSignalHistory) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSignalHistory) Store(ctx context.Context, rec *models.SignalRecord) error {
	q := `INSERT INTO ` + s.table + ` (
		generated_at, symbol, direction, confidence, recommendation,
		position_size, entry_price, stop_loss, take_profit, risk_reward,
		regime, reasons
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.GeneratedAt,
		rec.Symbol,
		string(rec.Direction),
		rec.Confidence,
		string(rec.Recommendation),
		rec.PositionSize,
		rec.EntryPrice,
		rec.StopLoss,
		rec.TakeProfit,
		rec.RiskReward,
		string(rec.Regime),
		strings.Join(rec.Reasons, "; "),
	)
	return err
}

func (s *ClickHouseSignalHistory) ApplyOutcome(ctx context.Context, out *models.SignalOutcome) error {
	q := `ALTER TABLE ` + s.table + ` UPDATE
		labeled = 1, win = ?, pips = ?, closed_at = ?
		WHERE symbol = ? AND generated_at = ?`
	win := 0
	if out.Win {
		win = 1
	}
	_, err := s.db.ExecContext(ctx, q, win, out.Pips, out.ClosedAt, out.Symbol, out.GeneratedAt)
	return err
}

func (s *ClickHouseSignalHistory) LabeledSince(ctx context.Context, since time.Time) ([]models.LabeledSignal, error) {
	q := `SELECT confidence, win, pips FROM ` + s.table + `
		WHERE labeled = 1 AND generated_at >= ?
		ORDER BY generated_at`
	rows, err := s.db.QueryContext(ctx, q, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LabeledSignal
	for rows.Next() {
		var l models.LabeledSignal
		var win uint8
		if err := rows.Scan(&l.Confidence, &win, &l.Pips); err != nil {
			return nil, err
		}
		l.Win = win == 1
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalHistory) Close() error {
	return nil // pool managed by pkg/clickhouse
}
