// Package datarecording persists kernel statistics and task archives into
// SQLite databases, so that runs can be inspected after the process exits.
package datarecording

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A DataRecorder can record structs into tables and store them.
type DataRecorder interface {
	// CreateTable creates a new table shaped after the sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers one entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all the created tables.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close()
}

// NewDataRecorder creates a DataRecorder backed by a SQLite database at the
// given path. The ".sqlite3" suffix is appended. An empty path picks a
// unique name. Buffered entries are flushed when the process exits.
func NewDataRecorder(path string) DataRecorder {
	if path == "" {
		path = "kernsim_run_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		log.Panicf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		log.Panic(err)
	}

	fmt.Fprintf(os.Stderr, "Recording run data to %s\n", filename)

	return newDataRecorderWithDB(db)
}

// NewDataRecorderWithDB creates a DataRecorder writing to an already open
// database.
func NewDataRecorderWithDB(db *sql.DB) DataRecorder {
	return newDataRecorderWithDB(db)
}

func newDataRecorderWithDB(db *sql.DB) DataRecorder {
	r := &sqliteRecorder{
		db:        db,
		batchSize: 10000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

type table struct {
	structType reflect.Type
	entries    []any
}

type sqliteRecorder struct {
	db *sql.DB

	tables     map[string]*table
	batchSize  int
	entryCount int
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	r.fieldsMustBeFlat(sampleEntry)

	fields := structs.Names(sampleEntry)
	createSQL := "CREATE TABLE " + tableName +
		" (\n\t" + strings.Join(fields, ",\n\t") + "\n);"
	r.mustExecute(createSQL)

	r.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

// fieldsMustBeFlat rejects entries with fields that SQLite cannot store in
// a single column.
func (r *sqliteRecorder) fieldsMustBeFlat(entry any) {
	entryType := reflect.TypeOf(entry)

	for i := 0; i < entryType.NumField(); i++ {
		switch entryType.Field(i).Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
		default:
			log.Panicf("field %s cannot be recorded",
				entryType.Field(i).Name)
		}
	}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	t, exists := r.tables[tableName]
	if !exists {
		log.Panicf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		log.Panicf("entry type does not match table %s", tableName)
	}

	t.entries = append(t.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	return names
}

func (r *sqliteRecorder) Flush() {
	if r.entryCount == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for tableName, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		stmt := r.prepareInsert(tableName, t.entries[0])

		for _, entry := range t.entries {
			value := reflect.ValueOf(entry)
			args := make([]any, 0, value.NumField())
			for i := 0; i < value.NumField(); i++ {
				args = append(args, value.Field(i).Interface())
			}

			if _, err := stmt.Exec(args...); err != nil {
				log.Panic(err)
			}
		}

		t.entries = nil
		stmt.Close()
	}

	r.entryCount = 0
}

func (r *sqliteRecorder) Close() {
	r.Flush()

	if err := r.db.Close(); err != nil {
		log.Panic(err)
	}
}

func (r *sqliteRecorder) prepareInsert(tableName string, entry any) *sql.Stmt {
	placeholders := structs.Names(entry)
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertSQL := "INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")"

	stmt, err := r.db.Prepare(insertSQL)
	if err != nil {
		log.Panic(err)
	}

	return stmt
}

func (r *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := r.db.Exec(query)
	if err != nil {
		log.Printf("failed to execute: %s", query)
		log.Panic(err)
	}

	return res
}
