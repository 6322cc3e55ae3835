package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/scribe/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"serialization", &pgconn.PgError{Code: "40001"}, repository.ErrSerialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	other := &pgconn.PgError{Code: "42P01"}
	if got := repository.MapError(other, errNotFound, errDuplicate); got != other {
		t.Errorf("got %v, want original error", got)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !repository.IsSerializationFailure(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})) {
		t.Error("wrapped 40001 not detected")
	}
	if repository.IsSerializationFailure(errors.New("plain")) {
		t.Error("plain error detected as serialization failure")
	}
	if !repository.IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("23503 not detected")
	}
}

func TestJSONScan(t *testing.T) {
	var j repository.JSON[map[string]any]
	if err := j.Scan([]byte(`{"a":1}`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if j.V["a"] != float64(1) {
		t.Errorf("got %v", j.V)
	}

	if err := j.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if j.V != nil {
		t.Errorf("got %v, want nil map", j.V)
	}

	if err := j.Scan(42); err == nil {
		t.Error("expected error for int source")
	}
}

func TestJSONValue(t *testing.T) {
	v, err := repository.JSON[[]string]{V: []string{"x"}}.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != `["x"]` {
		t.Errorf("got %v", v)
	}
}
