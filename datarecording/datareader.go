package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// QueryParams encapsulates all query parameters
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword
	// Example: "Tick > ? AND Port = ?"
	Where string

	// Args holds the arguments for the placeholders in Where
	Args []any

	// Limit is the maximum number of records to return. Set to 0 for no
	// limit.
	Limit int

	// Offset is the number of records to skip
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords
	// Example: "Tick DESC"
	OrderBy string
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable establishes a mapping between a database table and a Go struct
	// type. This mapping is required before querying a table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns a list of all tables that have been mapped.
	ListTables() []string

	// Query executes a query on a table and returns pointers to the mapped
	// struct type.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sql.DB

	typeMap map[string]reflect.Type
}

// NewReader opens the SQLite file dbFilename for reading.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.typeMap))
	for table := range r.typeMap {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("no mapping found for table: %s", tableName)
	}

	var totalCount int

	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+whereClause(params),
		params.Args...).Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx, selectQuery(tableName, params),
		params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := r.scanRowsToSlice(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	return results, totalCount, nil
}

func whereClause(params QueryParams) string {
	if params.Where == "" {
		return ""
	}

	return " WHERE " + params.Where
}

func selectQuery(tableName string, params QueryParams) string {
	var b strings.Builder

	b.WriteString("SELECT * FROM " + tableName + whereClause(params))

	if params.OrderBy != "" {
		b.WriteString(" ORDER BY " + params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	return b.String()
}

func (r *sqliteReader) scanRowsToSlice(
	rows *sql.Rows,
	structType reflect.Type,
) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldMap := make(map[string]int)
	for i := 0; i < structType.NumField(); i++ {
		fieldMap[structType.Field(i).Name] = i
	}

	var results []any

	for rows.Next() {
		structPtr := reflect.New(structType)
		structVal := structPtr.Elem()
		scanTargets := make([]any, len(columns))

		for i, colName := range columns {
			if fieldIdx, ok := fieldMap[colName]; ok {
				scanTargets[i] = structVal.Field(fieldIdx).Addr().Interface()
			} else {
				var placeholder any

				scanTargets[i] = &placeholder
			}
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		results = append(results, structPtr.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
