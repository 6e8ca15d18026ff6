// Package datarecording stores simulation events in SQLite tables.
//
// A table is created from a sample struct. Every exported field becomes a
// column. Entries are buffered and written in one transaction per Flush.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

const defaultBatchSize = 100000

// New creates a DataRecorder writing to path + ".sqlite3". An empty path
// picks a unique file name.
func New(path string) DataRecorder {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}

	w.Init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewWithDB creates a new DataRecorder with a given database.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		DB:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteWriter is the writer that writes data into SQLite database
type sqliteWriter struct {
	*sql.DB

	dbName     string
	tables     map[string]*table
	batchSize  int
	entryCount int
	closed     bool
}

// Init establishes a connection to the database.
func (t *sqliteWriter) Init() {
	if t.dbName == "" {
		t.dbName = "burstsim_recording_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *sqliteWriter) isAllowedType(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func (t *sqliteWriter) checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)
	if types == nil || types.Kind() != reflect.Struct {
		return errors.New("entry is not a struct")
	}

	for i := 0; i < types.NumField(); i++ {
		field := types.Field(i)

		if !field.IsExported() {
			return fmt.Errorf("field %s is not exported", field.Name)
		}

		if !t.isAllowedType(field.Type.Kind()) {
			return fmt.Errorf("field %s has unsupported type %s",
				field.Name, field.Type)
		}
	}

	return nil
}

func (t *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	err := t.checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	if _, exists := t.tables[tableName]; exists {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	n := structs.Names(sampleEntry)
	fields := strings.Join(n, ", \n\t")

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + fields + "\n" + `);`
	t.mustExecute(createTableSQL)

	t.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

func (t *sqliteWriter) InsertData(tableName string, entry any) {
	table, exists := t.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != table.structType {
		panic(fmt.Sprintf("entry of type %T does not match table %s",
			entry, tableName))
	}

	table.entries = append(table.entries, entry)

	t.entryCount++
	if t.entryCount >= t.batchSize {
		t.Flush()
	}
}

func (t *sqliteWriter) ListTables() []string {
	tables := make([]string, 0, len(t.tables))
	for table := range t.tables {
		tables = append(tables, table)
	}

	sort.Strings(tables)

	return tables
}

func (t *sqliteWriter) Flush() {
	if t.entryCount == 0 || t.closed {
		return
	}

	t.mustExecute("BEGIN TRANSACTION")
	defer t.mustExecute("COMMIT TRANSACTION")

	for tableName, table := range t.tables {
		if len(table.entries) == 0 {
			continue
		}

		stmt := t.prepareStatement(tableName, table.entries[0])

		for _, entry := range table.entries {
			v := []any{}

			values := reflect.ValueOf(entry)
			for i := 0; i < values.NumField(); i++ {
				v = append(v, values.Field(i).Interface())
			}

			_, err := stmt.Exec(v...)
			if err != nil {
				panic(err)
			}
		}

		table.entries = nil

		stmt.Close()
	}

	t.entryCount = 0
}

func (t *sqliteWriter) Close() error {
	if t.closed {
		return nil
	}

	t.Flush()
	t.closed = true

	return t.DB.Close()
}

func (t *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

func (t *sqliteWriter) prepareStatement(table string, entry any) *sql.Stmt {
	n := structs.Names(entry)
	for i := 0; i < len(n); i++ {
		n[i] = "?"
	}

	entryToFill := "(" + strings.Join(n, ", ") + ")"
	sqlStr := "INSERT INTO " + table + " VALUES " + entryToFill

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	return stmt
}
