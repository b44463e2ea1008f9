package datarecording

import (
	"database/sql"
	"fmt"
	"reflect"
)

// A DataReader can read the tables a DataRecorder wrote.
type DataReader interface {
	// MapTable establishes a mapping between a table and a struct type.
	// The mapping is required before querying the table.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of all the tables in the database.
	ListTables() []string

	// Query returns every row of a mapped table, in rowid order.
	Query(tableName string) ([]any, error)

	// Close closes the reader.
	Close() error
}

// NewDataReader creates a DataReader for a database file written by a
// DataRecorder.
func NewDataReader(filename string) DataReader {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		db:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

// NewDataReaderWithDB creates a DataReader over an already open database.
func NewDataReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

type sqliteReader struct {
	db *sql.DB

	typeMap map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	rows, err := r.db.Query(
		"SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			panic(err)
		}

		tables = append(tables, name)
	}

	return tables
}

func (r *sqliteReader) Query(tableName string) ([]any, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, fmt.Errorf("no mapping found for table %s", tableName)
	}

	rows, err := r.db.Query("SELECT * FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		entry := reflect.New(structType).Elem()

		fields := make([]any, structType.NumField())
		for i := range fields {
			fields[i] = entry.Field(i).Addr().Interface()
		}

		if err := rows.Scan(fields...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
