package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spartasim/simdb/internal/schema"
)

func employeesTable(s *schema.Schema) *schema.Schema {
	return s.AddTable("Employees").
		AddColumn("EmployeeID", schema.Int32, schema.WithIndexed()).
		AddColumn("Age", schema.Int32).
		Done()
}

func TestFinalizeRejectsEmptyTable(t *testing.T) {
	s := schema.NewSchema()
	s.AddTable("Empty").Done()
	require.Error(t, s.Finalize())
}

func TestFinalizeRejectsUnresolvedFKey(t *testing.T) {
	s := schema.NewSchema()
	s.AddTable("Child").
		AddColumn("ParentID", schema.FKey, schema.WithFKeyTarget("Parent")).
		Done()
	require.Error(t, s.Finalize())
}

func TestFKeyResolvesWithinSchema(t *testing.T) {
	s := schema.NewSchema()
	s.AddTable("Parent").AddColumn("Name", schema.String).Done()
	s.AddTable("Child").
		AddColumn("ParentID", schema.FKey, schema.WithFKeyTarget("Parent")).
		Done()
	require.NoError(t, s.Finalize())
}

// TESTABLE PROPERTY 6: registering two identical schema builders yields the
// same realized schema as registering one; conflicting builders fail.
func TestCompositionIdempotence(t *testing.T) {
	a := schema.NewSchema()
	employeesTable(a)

	b := schema.NewSchema()
	employeesTable(b)

	require.NoError(t, a.Merge(b))
	assert.Len(t, a.Tables(), 1)
}

func TestCompositionConflictFails(t *testing.T) {
	a := schema.NewSchema()
	employeesTable(a)

	b := schema.NewSchema()
	b.AddTable("Employees").AddColumn("OnlyOneColumn", schema.String).Done()

	err := a.Merge(b)
	require.Error(t, err)
}

func TestSchemaEqualIgnoresTableOrder(t *testing.T) {
	a := schema.NewSchema()
	a.AddTable("A").AddColumn("X", schema.Int32).Done()
	a.AddTable("B").AddColumn("Y", schema.String).Done()

	b := schema.NewSchema()
	b.AddTable("B").AddColumn("Y", schema.String).Done()
	b.AddTable("A").AddColumn("X", schema.Int32).Done()

	assert.True(t, a.Equal(b))
}

// TESTABLE PROPERTY 5: two tables with the same unqualified name in two
// different namespaces coexist via the "$" delimiter.
func TestNamespaceQualification(t *testing.T) {
	s := schema.NewSchema()
	employeesTable(s)

	names := s.QualifiedNames("Random")
	require.Len(t, names, 1)
	assert.Equal(t, "Random$Employees", names[0])

	other := s.QualifiedNames("Incrementing")
	assert.Equal(t, "Incrementing$Employees", other[0])
	assert.NotEqual(t, names[0], other[0])
}

func TestQualifyTableNameIsIdempotent(t *testing.T) {
	once := schema.QualifyTableName("Stats", "MyTable")
	twice := schema.QualifyTableName("Stats", once)
	assert.Equal(t, once, twice)
}

func TestFixedSizeDetection(t *testing.T) {
	s := schema.NewSchema()
	s.AddTable("Scalars").
		AddColumn("A", schema.Int32).
		AddColumn("B", schema.Double).
		Done()
	s.AddTable("HasBlob").
		AddColumn("A", schema.Int32).
		AddColumn("Raw", schema.Blob).
		Done()

	scalars, _ := s.Table("Scalars")
	blobTable, _ := s.Table("HasBlob")
	assert.True(t, scalars.FixedSize)
	assert.False(t, blobTable.FixedSize)
}
