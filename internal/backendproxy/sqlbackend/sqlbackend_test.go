package sqlbackend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/backendproxy"
	"github.com/spartasim/simdb/internal/backendproxy/sqlbackend"
	"github.com/spartasim/simdb/internal/schema"
)

func employeesSchema() *schema.Schema {
	s := schema.NewSchema()
	s.AddTable("Employees").
		AddColumn("Name", schema.String).
		AddColumn("Age", schema.Int32, schema.WithIndexed()).
		Done()
	return s
}

// TESTABLE PROPERTY: round trip. Data written through CreateObject and
// read back through PrepareQuery matches exactly.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roundtrip.simdb")

	b := sqlbackend.New()
	require.NoError(t, b.CreateDatabaseFile(ctx, path))
	defer b.Close()

	s := employeesSchema()
	require.NoError(t, b.ValidateSchema(s))
	require.NoError(t, b.RealizeSchema(ctx, s, "Random"))

	id, err := b.CreateObject(ctx, "Random$Employees", backendproxy.RowValues{
		"Name": "grace",
		"Age":  42,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	pq, err := b.PrepareQuery(ctx, backendproxy.QuerySpec{
		Table: "Random$Employees",
		Constraints: []backendproxy.Constraint{
			{Column: "Age", Op: backendproxy.OpEq, Value: int64(42)},
		},
	})
	require.NoError(t, err)
	defer pq.Close()

	row, ok, err := pq.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "grace", row["Name"])

	_, ok, err = pq.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

// Id monotonicity: successive CreateObject calls yield strictly increasing
// Ids, even across delete/re-create.
func TestIdMonotonicity(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mono.simdb")

	b := sqlbackend.New()
	require.NoError(t, b.CreateDatabaseFile(ctx, path))
	defer b.Close()

	s := employeesSchema()
	require.NoError(t, b.RealizeSchema(ctx, s, ""))

	id1, err := b.CreateObject(ctx, "Employees", backendproxy.RowValues{"Name": "a", "Age": 1})
	require.NoError(t, err)
	n, err := b.PerformDelete(ctx, "Employees", []backendproxy.Constraint{
		{Column: "Id", Op: backendproxy.OpEq, Value: id1},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	id2, err := b.CreateObject(ctx, "Employees", backendproxy.RowValues{"Name": "b", "Age": 2})
	require.NoError(t, err)
	require.Greater(t, id2, id1)
}

func TestAtomicTransactionRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "atomic.simdb")

	b := sqlbackend.New()
	require.NoError(t, b.CreateDatabaseFile(ctx, path))
	defer b.Close()

	s := employeesSchema()
	require.NoError(t, b.RealizeSchema(ctx, s, ""))

	require.NoError(t, b.BeginAtomic(ctx))
	_, err := b.CreateObject(ctx, "Employees", backendproxy.RowValues{"Name": "temp", "Age": 1})
	require.NoError(t, err)
	require.NoError(t, b.RollbackAtomic(ctx))

	pq, err := b.PrepareQuery(ctx, backendproxy.QuerySpec{Table: "Employees"})
	require.NoError(t, err)
	defer pq.Close()
	_, ok, err := pq.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok, "rolled-back insert must not be visible")
}

func TestValidateSchemaRejectsMatrixColumns(t *testing.T) {
	s := schema.NewSchema()
	s.AddTable("Grids").
		AddColumn("Cells", schema.Double, schema.WithDims(4, 4)).
		Done()

	b := sqlbackend.New()
	require.Error(t, b.ValidateSchema(s))
}

func TestNamespaceQualificationKeepsTablesDistinct(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ns.simdb")

	b := sqlbackend.New()
	require.NoError(t, b.CreateDatabaseFile(ctx, path))
	defer b.Close()

	require.NoError(t, b.RealizeSchema(ctx, employeesSchema(), "Random"))
	require.NoError(t, b.RealizeSchema(ctx, employeesSchema(), "Incrementing"))

	names, err := b.TableNames(ctx)
	require.NoError(t, err)
	require.Contains(t, names, "Random$Employees")
	require.Contains(t, names, "Incrementing$Employees")
}
