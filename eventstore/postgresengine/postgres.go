package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/internal/observation"
	"github.com/AntonStoeckl/restock-eventsourcing-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName          = "events"
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgBuildTruncateQueryFailed = "failed to build truncate query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgDBExecFailed             = "database execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgQueryCompleted           = "query completed"
	logMsgEventsAppended           = "events appended"
	logMsgEventsCleared            = "events cleared"
	logMsgSchemaEnsured            = "schema ensured"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "
	logAttrError                   = "error"
	logAttrQuery                   = "query"
	logAttrAdapter                 = "adapter"
	logAttrTable                   = "table"
	logAttrEventType               = "event_type"
	logAttrEventCount              = "event_count"
	logAttrRowsAffected            = "rows_affected"
	logAttrDurationMS              = "duration_ms"
	logActionQuery                 = "query"
	logActionAppend                = "append"
	logActionClear                 = "clear"
	logActionEnsureSchema          = "ensure schema"
	colEventType                   = "event_type"
	colOccurredAt                  = "occurred_at"
	colPayload                     = "payload"
	colMetadata                    = "metadata"
	colSequenceNumber              = "sequence_number"
	dialectPostgres                = "postgres"
	castJsonb                      = "?::jsonb"
	payloadContains                = colPayload + " @> ?::jsonb"
	identityRestart                = "RESTART"
	engineName                     = "postgres"
)

// createTableStatement and createIndexStatements take the sanitized table name.
const createTableStatement = `CREATE TABLE IF NOT EXISTS %s (
	sequence_number bigserial PRIMARY KEY,
	event_type text NOT NULL,
	occurred_at timestamptz NOT NULL,
	payload jsonb NOT NULL,
	metadata jsonb NOT NULL DEFAULT '{}'::jsonb
)`

var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS %s ON %s (event_type)`,
	`CREATE INDEX IF NOT EXISTS %s ON %s USING gin (payload jsonb_path_ops)`,
}

var createIndexSuffixes = []string{"_event_type_idx", "_payload_idx"}

var (
	// ErrGettingRowsAffectedFailed is returned when the driver can't report the number of inserted rows.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrUnexpectedRowsAffected is returned when fewer rows were inserted than events were supplied.
	ErrUnexpectedRowsAffected = errors.New("unexpected number of rows affected")

	// ErrEnsuringSchemaFailed is returned when the events table or its indexes can't be created.
	ErrEnsuringSchemaFailed = errors.New("ensuring schema failed")
)

type (
	sqlQueryString = string
	queryDuration  = time.Duration
)

// EventStore is an append-only event log in a PostgreSQL table.
//
// Events are ordered by the table's bigserial sequence number; filters are pushed down as
// event type comparisons and jsonb containment checks on the payload.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	logger         eventstore.Logger
	instruments    observation.Instruments
}

type queryResultRow struct {
	eventType  string
	occurredAt time.Time
	payload    []byte
	metadata   []byte
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// EnsureSchema creates the events table and its indexes if they don't exist yet.
func (es EventStore) EnsureSchema(ctx context.Context) error {
	tableIdentifier := pgx.Identifier{es.eventTableName}.Sanitize()

	statements := []string{fmt.Sprintf(createTableStatement, tableIdentifier)}
	for i, statement := range createIndexStatements {
		indexIdentifier := pgx.Identifier{es.eventTableName + createIndexSuffixes[i]}.Sanitize()
		statements = append(statements, fmt.Sprintf(statement, indexIdentifier, tableIdentifier))
	}

	start := time.Now()
	for _, statement := range statements {
		if _, err := es.exec(ctx, statement, logActionEnsureSchema); err != nil {
			return errors.Join(ErrEnsuringSchemaFailed, err)
		}
	}

	es.logOperation(logMsgSchemaEnsured, logAttrTable, es.eventTableName, logAttrDurationMS, es.durationToMilliseconds(time.Since(start)))

	return nil
}

// Query retrieves all events matching the eventstore.Filter, ordered by their sequence number.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (eventstore.StorableEvents, error) {
	var empty eventstore.StorableEvents

	observer, ctx := es.instruments.Start(ctx, engineName, observation.OperationQuery, nil)

	sqlQuery, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgBuildSelectQueryFailed, logAttrError, buildQueryErr.Error())
		}

		observer.Fail(observation.ErrorTypeBuildQuery, buildQueryErr)

		return empty, buildQueryErr
	}

	rows, duration, queryErr := es.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		observer.Fail(observation.ErrorTypeDatabaseQuery, queryErr)
		return empty, queryErr
	}
	defer es.closeRows(rows)

	events, scanErr := es.processQueryResults(rows)
	if scanErr != nil {
		observer.Fail(scanErrorType(scanErr), scanErr)
		return empty, scanErr
	}

	observer.Succeed(len(events))

	es.logOperation(
		logMsgQueryCompleted,
		logAttrAdapter, es.db.Name(),
		logAttrEventCount, len(events),
		logAttrDurationMS, es.durationToMilliseconds(duration),
	)

	return events, nil
}

func scanErrorType(err error) string {
	if errors.Is(err, eventstore.ErrBuildingStorableEventFailed) {
		return observation.ErrorTypeBuildEvent
	}

	return observation.ErrorTypeRowScan
}

// executeQuery executes the SQL query and returns rows with timing information.
func (es EventStore) executeQuery(ctx context.Context, sqlQuery string) (adapters.DBRows, queryDuration, error) {
	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, duration, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows closes database rows and logs any errors.
func (es EventStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if es.logger != nil {
			es.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// processQueryResults scans database rows into StorableEvents.
func (es EventStore) processQueryResults(rows adapters.DBRows) (eventstore.StorableEvents, error) {
	var empty eventstore.StorableEvents
	result := queryResultRow{}
	events := make(eventstore.StorableEvents, 0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.eventType, &result.occurredAt, &result.payload, &result.metadata)
		if rowScanErr != nil {
			if es.logger != nil {
				es.logger.Error(logMsgScanRowFailed, logAttrError, rowScanErr.Error())
			}

			return empty, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		event, buildStorableErr := eventstore.BuildStorableEvent(
			result.eventType,
			result.occurredAt.UTC(),
			append([]byte(nil), result.payload...),
			append([]byte(nil), result.metadata...),
		)

		if buildStorableErr != nil {
			if es.logger != nil {
				es.logger.Error(logMsgBuildStorableEventFailed, logAttrError, buildStorableErr.Error(), logAttrEventType, result.eventType)
			}

			return empty, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		events = append(events, event)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgScanRowFailed, logAttrError, rowsErr.Error())
		}

		return empty, errors.Join(eventstore.ErrQueryingEventsFailed, rowsErr)
	}

	return events, nil
}

// Append inserts one or multiple events with a single multi-row INSERT, so either all or none are stored.
func (es EventStore) Append(
	ctx context.Context,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	observer, ctx := es.instruments.Start(ctx, engineName, observation.OperationAppend, map[string]string{
		observation.AttrEventType:  event.EventType,
		observation.AttrEventCount: fmt.Sprintf("%d", len(allEvents)),
	})

	sqlQuery, buildQueryErr := es.buildInsertQuery(allEvents)
	if buildQueryErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgBuildInsertQueryFailed, logAttrError, buildQueryErr.Error(), logAttrEventCount, len(allEvents))
		}

		observer.Fail(observation.ErrorTypeBuildQuery, buildQueryErr)

		return buildQueryErr
	}

	start := time.Now()
	result, execErr := es.exec(ctx, sqlQuery, logActionAppend)
	if execErr != nil {
		observer.Fail(observation.ErrorTypeDatabaseExec, execErr)
		return errors.Join(eventstore.ErrAppendingEventFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		}

		observer.Fail(observation.ErrorTypeRowsAffected, rowsAffectedErr)

		return errors.Join(eventstore.ErrAppendingEventFailed, ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	if rowsAffected != int64(len(allEvents)) {
		mismatchErr := fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedRowsAffected, len(allEvents), rowsAffected)
		observer.Fail(observation.ErrorTypeRowsAffected, mismatchErr)

		return errors.Join(eventstore.ErrAppendingEventFailed, mismatchErr)
	}

	observer.Succeed(len(allEvents))

	es.logOperation(
		logMsgEventsAppended,
		logAttrAdapter, es.db.Name(),
		logAttrEventCount, len(allEvents),
		logAttrRowsAffected, rowsAffected,
		logAttrDurationMS, es.durationToMilliseconds(time.Since(start)),
	)

	return nil
}

// Clear removes all events and restarts the sequence.
func (es EventStore) Clear(ctx context.Context) error {
	observer, ctx := es.instruments.Start(ctx, engineName, observation.OperationClear, nil)

	sqlQuery, _, toSQLErr := goqu.Dialect(dialectPostgres).
		Truncate(es.eventTableName).
		Identity(identityRestart).
		ToSQL()

	if toSQLErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgBuildTruncateQueryFailed, logAttrError, toSQLErr.Error())
		}

		observer.Fail(observation.ErrorTypeBuildQuery, toSQLErr)

		return errors.Join(eventstore.ErrClearingEventsFailed, eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	if _, execErr := es.exec(ctx, sqlQuery, logActionClear); execErr != nil {
		observer.Fail(observation.ErrorTypeDatabaseExec, execErr)
		return errors.Join(eventstore.ErrClearingEventsFailed, execErr)
	}

	observer.Succeed(0)

	es.logOperation(logMsgEventsCleared, logAttrAdapter, es.db.Name(), logAttrTable, es.eventTableName)

	return nil
}

// exec runs a write statement with debug logging of the SQL and error logging on failure.
func (es EventStore) exec(ctx context.Context, sqlQuery string, action string) (adapters.DBResult, error) {
	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		if es.logger != nil {
			es.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, execErr
	}

	return result, nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata).
		Order(goqu.I(colSequenceNumber).Asc())

	whereExpression, whereErr := es.buildWhereExpression(filter)
	if whereErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, whereErr)
	}

	if whereExpression != nil {
		selectStmt = selectStmt.Where(whereExpression)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (es EventStore) buildInsertQuery(events eventstore.StorableEvents) (sqlQueryString, error) {
	rows := make([][]any, 0, len(events))
	for _, event := range events {
		rows = append(rows, goqu.Vals{
			event.EventType,
			event.OccurredAt.UTC(),
			goqu.L(castJsonb, string(event.PayloadJSON)),
			goqu.L(castJsonb, string(event.MetadataJSON)),
		})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		Vals(rows...)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildWhereExpression translates the filter into SQL; nil means "no restriction".
//
// A predicate becomes a jsonb containment check with the predicate encoded as a JSON object,
// which goqu then interpolates as an escaped string literal.
func (es EventStore) buildWhereExpression(filter eventstore.Filter) (goqu.Expression, error) {
	itemsExpressions := make([]goqu.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		itemExpressions := make([]goqu.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			eventTypeExpressions := make([]goqu.Expression, 0, len(item.EventTypes()))
			for _, eventType := range item.EventTypes() {
				eventTypeExpressions = append(eventTypeExpressions, goqu.Ex{colEventType: eventType})
			}

			itemExpressions = append(itemExpressions, goqu.Or(eventTypeExpressions...))
		}

		if len(item.Predicates()) > 0 {
			predicateExpressions := make([]goqu.Expression, 0, len(item.Predicates()))
			for _, predicate := range item.Predicates() {
				containment, marshalErr := jsoniter.ConfigFastest.MarshalToString(map[string]string{predicate.Key(): predicate.Val()})
				if marshalErr != nil {
					return nil, marshalErr
				}

				predicateExpressions = append(predicateExpressions, goqu.L(payloadContains, containment))
			}

			itemExpressions = append(itemExpressions, goqu.Or(predicateExpressions...))
		}

		if len(itemExpressions) == 0 {
			// an unrestricted item matches every event, so the whole filter does
			return nil, nil
		}

		itemsExpressions = append(itemsExpressions, goqu.And(itemExpressions...))
	}

	if len(itemsExpressions) == 0 {
		return nil, nil
	}

	return goqu.Or(itemsExpressions...), nil
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (es EventStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, es.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (es EventStore) logOperation(action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es EventStore) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
