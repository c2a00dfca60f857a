// Package manifest records export runs in a SQLite database so that past
// outcomes can be inspected after the exported files have been reviewed.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/iacexport/iacexport/assets"
	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/pipeline"
)

var tracer = otel.Tracer("iacexport/pkg/manifest")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "manifest."+name)
}

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrDuplicateRun = errors.New("run already recorded")
)

// insertBatch bounds the rows of a single INSERT statement.
const insertBatch = 200

// Store is a SQLite backed run manifest. It implements [pipeline.Recorder].
type Store struct {
	stbl        sq.StatementBuilderType
	db          *sql.DB
	logger      logger.Logger
	pingTimeout time.Duration
}

var _ pipeline.Recorder = (*Store)(nil)

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithPingTimeout bounds how long Open waits for the database to answer.
func WithPingTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.pingTimeout = d
	}
}

// Run summarizes one recorded run.
type Run struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Written  int
	Skipped  int
	// SharedVariables is the number of variables in the shared variables file.
	SharedVariables int
}

// PrepareDSN adds journal mode, busy timeout and foreign key pragmas to uri
// unless it already sets them.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}
		uri = uri[:i]
	}

	var foundJournalMode, foundBusyTimeout, foundForeignKeys bool
	for _, val := range query["_pragma"] {
		switch {
		case strings.HasPrefix(val, "journal_mode"):
			foundJournalMode = true
		case strings.HasPrefix(val, "busy_timeout"):
			foundBusyTimeout = true
		case strings.HasPrefix(val, "foreign_keys"):
			foundForeignKeys = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(100)")
	}
	if !foundForeignKeys {
		query.Add("_pragma", "foreign_keys(1)")
	}
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	return uri + "?" + query.Encode(), nil
}

// Open connects to the database at uri and migrates it to the latest schema.
func Open(ctx context.Context, uri string, opts ...Option) (*Store, error) {
	s := &Store{
		logger:      logger.NewNoopLogger(),
		pingTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, errors.With(err, errors.ErrConfiguration)
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.pingTimeout
	err = backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	s.stbl = sq.StatementBuilder.RunWith(db)
	return s, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(assets.EmbedMigrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set sqlite dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, assets.SqliteMigrationDir); err != nil {
		return fmt.Errorf("failed to run sqlite migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores r together with the outcome of each of its objects and
// producers. A run can only be recorded once.
func (s *Store) Record(ctx context.Context, r *pipeline.Report) error {
	ctx, span := startTrace(ctx, "Record")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", r.RunID))

	var txn *sql.Tx
	err := busyRetry(func() error {
		var err error
		txn, err = s.db.BeginTx(ctx, nil)
		return err
	})
	if err != nil {
		return handleSQLError(err)
	}
	defer func() {
		_ = txn.Rollback()
	}()

	_, err = s.stbl.
		Insert("run").
		Columns("id", "started_at", "finished_at", "shared_variables", "shared_variables_path").
		Values(r.RunID, r.Started.UnixNano(), r.Finished.UnixNano(), r.SharedVariables, r.SharedVariablesPath).
		RunWith(txn).
		ExecContext(ctx)
	if err != nil {
		return handleSQLError(err)
	}

	if len(r.Producers) > 0 {
		producers := s.stbl.
			Insert("producer_result").
			Columns("run_id", "resource", "objects", "error")
		for _, p := range r.Producers {
			var perr sql.NullString
			if p.Err != nil {
				perr = sql.NullString{String: p.Err.Error(), Valid: true}
			}
			producers = producers.Values(r.RunID, p.Resource, p.Objects, perr)
		}
		if _, err := producers.RunWith(txn).ExecContext(ctx); err != nil {
			return handleSQLError(err)
		}
	}

	for start := 0; start < len(r.Objects); start += insertBatch {
		end := min(start+insertBatch, len(r.Objects))
		objects := s.stbl.
			Insert("object_result").
			Columns("run_id", "resource", "raw_id", "identity", "destination", "status", "kind", "reason")
		for _, o := range r.Objects[start:end] {
			objects = objects.Values(r.RunID, o.Resource, o.RawID, o.Identity, o.Destination, string(o.Status), o.Kind, o.Reason)
		}
		if _, err := objects.RunWith(txn).ExecContext(ctx); err != nil {
			return handleSQLError(err)
		}
	}

	err = busyRetry(func() error {
		return txn.Commit()
	})
	if err != nil {
		return handleSQLError(err)
	}

	s.logger.DebugWithContext(ctx, "run recorded",
		zap.String("run_id", r.RunID),
		zap.Int("objects", len(r.Objects)))
	return nil
}

// Runs lists the most recent runs, newest first. A limit of zero lists every
// run.
func (s *Store) Runs(ctx context.Context, limit uint64) ([]Run, error) {
	ctx, span := startTrace(ctx, "Runs")
	defer span.End()

	sb := s.stbl.
		Select(
			"r.id", "r.started_at", "r.finished_at", "r.shared_variables",
			"COALESCE(SUM(CASE WHEN o.status = 'written' THEN 1 ELSE 0 END), 0)",
			"COALESCE(SUM(CASE WHEN o.status = 'skipped' THEN 1 ELSE 0 END), 0)",
		).
		From("run r").
		LeftJoin("object_result o ON o.run_id = r.id").
		GroupBy("r.id").
		OrderBy("r.started_at DESC", "r.id DESC")
	if limit > 0 {
		sb = sb.Limit(limit)
	}

	rows, err := sb.QueryContext(ctx)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.SharedVariables, &run.Written, &run.Skipped); err != nil {
			return nil, handleSQLError(err)
		}
		run.Started = time.Unix(0, started).UTC()
		run.Finished = time.Unix(0, finished).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return runs, nil
}

// Latest loads the most recently started run.
func (s *Store) Latest(ctx context.Context) (*pipeline.Report, error) {
	var id string
	err := s.stbl.
		Select("id").
		From("run").
		OrderBy("started_at DESC", "id DESC").
		Limit(1).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return nil, handleSQLError(err)
	}
	return s.Load(ctx, id)
}

// Load rebuilds the report of run id. Producer errors come back as plain
// errors carrying the recorded message.
func (s *Store) Load(ctx context.Context, id string) (*pipeline.Report, error) {
	ctx, span := startTrace(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", id))

	r := &pipeline.Report{RunID: id}
	var started, finished int64
	err := s.stbl.
		Select("started_at", "finished_at", "shared_variables", "shared_variables_path").
		From("run").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&started, &finished, &r.SharedVariables, &r.SharedVariablesPath)
	if err != nil {
		return nil, handleSQLError(err, id)
	}
	r.Started = time.Unix(0, started).UTC()
	r.Finished = time.Unix(0, finished).UTC()

	if r.Producers, err = s.loadProducers(ctx, id); err != nil {
		return nil, err
	}
	if r.Objects, err = s.loadObjects(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) loadProducers(ctx context.Context, id string) ([]pipeline.ProducerResult, error) {
	rows, err := s.stbl.
		Select("resource", "objects", "error").
		From("producer_result").
		Where(sq.Eq{"run_id": id}).
		OrderBy("rowid").
		QueryContext(ctx)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	var out []pipeline.ProducerResult
	for rows.Next() {
		var (
			p    pipeline.ProducerResult
			perr sql.NullString
		)
		if err := rows.Scan(&p.Resource, &p.Objects, &perr); err != nil {
			return nil, handleSQLError(err)
		}
		if perr.Valid {
			p.Err = errors.New(perr.String)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return out, nil
}

func (s *Store) loadObjects(ctx context.Context, id string) ([]pipeline.ObjectResult, error) {
	rows, err := s.stbl.
		Select("resource", "raw_id", "identity", "destination", "status", "kind", "reason").
		From("object_result").
		Where(sq.Eq{"run_id": id}).
		OrderBy("rowid").
		QueryContext(ctx)
	if err != nil {
		return nil, handleSQLError(err)
	}
	defer rows.Close()

	var out []pipeline.ObjectResult
	for rows.Next() {
		var (
			o      pipeline.ObjectResult
			status string
		)
		if err := rows.Scan(&o.Resource, &o.RawID, &o.Identity, &o.Destination, &status, &o.Kind, &o.Reason); err != nil {
			return nil, handleSQLError(err)
		}
		o.Status = pipeline.Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, handleSQLError(err)
	}
	return out, nil
}

func handleSQLError(err error, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		if len(args) > 0 {
			return errors.Wrapf(ErrRunNotFound, "%v", args[0])
		}
		return ErrRunNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
		return ErrDuplicateRun
	}

	return fmt.Errorf("sql error: %w", err)
}

// SQLite reports SQLITE_BUSY instead of waiting for a lock held by another
// connection.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}
		if isBusyError(err) && retries < maxRetries {
			continue
		}
		if isBusyError(err) {
			return fmt.Errorf("sqlite busy error after %d retries: %w", maxRetries, err)
		}
		return err
	}
}

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}
