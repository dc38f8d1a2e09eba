package postgres

import (
	"database/sql"
	"database/sql/driver"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// arrayConverter accepts the []string arguments the pgx stdlib driver binds
// to ANY($n) array parameters; sqlmock's default converter rejects slices.
// Everything else takes the default conversion.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v interface{}) (driver.Value, error) {
	if ss, ok := v.([]string); ok {
		return "{" + strings.Join(ss, ",") + "}", nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

// newMockDB builds a sqlmock connection that tolerates array parameters and
// closes with the test.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
