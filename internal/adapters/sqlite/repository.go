package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"forecastbot/internal/domain"
	"forecastbot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository archives replay ledgers in SQLite so runs can be compared after
// the fact. The in-memory ledger produced during a replay stays authoritative;
// this archive is written once per run, after the replay completed.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite archive.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (and if needed creates) the archive database.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/replays.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode keeps the writer from blocking any concurrent reader.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Replay archive opened", map[string]interface{}{"path": dbPath})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS replay_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		initial_balance REAL NOT NULL,
		final_balance REAL NOT NULL,
		trade_count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS replay_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		side TEXT NOT NULL,
		amount REAL NOT NULL,
		entry_price REAL NOT NULL,
		close_price REAL NOT NULL,
		return_rate REAL NOT NULL,
		balance REAL NOT NULL,
		entry_time TIMESTAMP NOT NULL,
		close_time TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_replay_trades_run ON replay_trades (run_id);
	CREATE INDEX IF NOT EXISTS idx_replay_runs_symbol ON replay_runs (symbol, started_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveRun stores one completed replay run and its full ledger inside a single
// transaction, returning the assigned run ID.
func (r *Repository) SaveRun(ctx context.Context, symbol string, initialBalance, finalBalance float64, ledger []domain.TradeRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin archive transaction: %w: %w", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	const runQuery = `
	INSERT INTO replay_runs (symbol, started_at, initial_balance, final_balance, trade_count)
	VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, runQuery,
		symbol, time.Now().UTC(), initialBalance, finalBalance, len(ledger))
	if err != nil {
		return 0, fmt.Errorf("failed to insert replay run for symbol %s: %w", symbol, err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID for symbol %s: %w", symbol, err)
	}

	const tradeQuery = `
	INSERT INTO replay_trades (run_id, side, amount, entry_price, close_price,
	                           return_rate, balance, entry_time, close_time)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range ledger {
		if _, err := tx.ExecContext(ctx, tradeQuery,
			runID, rec.Side.String(), rec.Amount, rec.EntryPrice, rec.ClosePrice,
			rec.Return, rec.Balance, rec.EntryTime, rec.CloseTime); err != nil {
			return 0, fmt.Errorf("failed to insert trade for run %d: %w", runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive for run %d: %w", runID, err)
	}
	r.logger.Debug(ctx, "Replay run archived", map[string]interface{}{"runID": runID, "trades": len(ledger)})
	return runID, nil
}

// FindTradesByRun retrieves the archived ledger of a run in close order.
func (r *Repository) FindTradesByRun(ctx context.Context, runID int64) ([]domain.TradeRecord, error) {
	const query = `
	SELECT side, amount, entry_price, close_price, return_rate, balance, entry_time, close_time
	FROM replay_trades
	WHERE run_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for run %d: %w", runID, err)
	}
	defer rows.Close()

	ledger := make([]domain.TradeRecord, 0)
	for rows.Next() {
		var rec domain.TradeRecord
		var side string
		if err := rows.Scan(&side, &rec.Amount, &rec.EntryPrice, &rec.ClosePrice,
			&rec.Return, &rec.Balance, &rec.EntryTime, &rec.CloseTime); err != nil {
			return nil, fmt.Errorf("failed to scan trade for run %d: %w", runID, err)
		}
		rec.Side, err = domain.ParseSide(side)
		if err != nil {
			return nil, fmt.Errorf("archived trade for run %d has invalid side: %w", runID, err)
		}
		ledger = append(ledger, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades for run %d: %w", runID, err)
	}
	return ledger, nil
}
