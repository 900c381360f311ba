package freeform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeform-db/freeform/pkg/types"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()

	ctx, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// queryRows runs dialect text with parameters and collects every row
// as stringified columns.
func queryRows(t *testing.T, ctx *Context, text string, params map[string]types.StrNum) [][]string {
	t.Helper()

	sel, err := ctx.Parse(text)
	require.NoError(t, err)
	for name, value := range params {
		sel.AddParam(name, value)
	}

	reader, err := ctx.ExecQuery(sel)
	require.NoError(t, err)
	defer reader.Close()

	var rows [][]string
	for reader.Read() {
		row := make([]string, reader.GetColumnCount())
		for i := range row {
			row[i] = reader.GetString(i)
		}
		rows = append(rows, row)
	}
	require.NoError(t, reader.Err())
	return rows
}

func TestOpenBootstrapsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	ctx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"make": types.String("toyota")}))
	require.NoError(t, ctx.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	// Reopening sees the stored data and does not rebuild.
	ctx, err = Open(path)
	require.NoError(t, err)
	defer ctx.Close()

	rows := queryRows(t, ctx, "SELECT make FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "toyota", rows[0][0])
}

func TestDefineAndQuery(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"make": types.String("toyota"),
		"year": types.Number(1992),
	}))
	require.NoError(t, ctx.Define("cars", types.String("vin2"), map[string]types.StrNum{
		"make": types.String("honda"),
		"year": types.Number(2001),
	}))

	rows := queryRows(t, ctx, "SELECT make, year FROM cars WHERE year > @min",
		map[string]types.StrNum{"@min": types.Number(1995)})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"honda", "2001"}, rows[0])
}

func TestDefineUpsertMergesAttributes(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"make": types.String("toyota"),
		"year": types.Number(1992),
	}))

	// Redefining overwrites mentioned attributes, keeps the rest.
	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"make": types.String("honda"),
	}))

	rows := queryRows(t, ctx, "SELECT make, year FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"honda", "1992"}, rows[0])
}

func TestDefineTypeMismatch(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"year": types.Number(1992)}))

	err := ctx.Define("cars", types.String("vin2"),
		map[string]types.StrNum{"year": types.String("nineteen92")})
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
	assert.EqualError(t, types.ErrTypeMismatch, "Data numeric does not match name")
}

func TestDefineRejectsBadAttributeNames(t *testing.T) {
	ctx := newTestContext(t)

	err := ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"value": types.String("x")})
	assert.ErrorIs(t, err, types.ErrReservedName)

	err = ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"2fast": types.String("x")})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestUndefine(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"make": types.String("toyota"),
		"year": types.Number(1992),
	}))

	require.NoError(t, ctx.Undefine("cars", types.String("vin1"), "make"))

	rows := queryRows(t, ctx, "SELECT make, year FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"null", "1992"}, rows[0])

	// Unknown table fails; the row is never created implicitly.
	err := ctx.Undefine("trucks", types.String("vin1"), "make")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteRows(t *testing.T) {
	ctx := newTestContext(t)

	for _, vin := range []string{"vin1", "vin2", "vin3"} {
		require.NoError(t, ctx.Define("cars", types.String(vin),
			map[string]types.StrNum{"make": types.String("toyota")}))
	}

	require.NoError(t, ctx.DeleteRows("cars",
		[]types.StrNum{types.String("vin1"), types.String("vin3")}))

	rows := queryRows(t, ctx, "SELECT value FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "vin2", rows[0][0])

	// Unknown tables and keys are no-ops.
	require.NoError(t, ctx.DeleteRow("trucks", types.String("vin1")))
	require.NoError(t, ctx.DeleteRow("cars", types.String("ghost")))
}

func TestDropTable(t *testing.T) {
	ctx := newTestContext(t)

	firstID, err := ctx.EnsureTable("cars", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"make": types.String("toyota")}))

	dropped, err := ctx.Drop("cars")
	require.NoError(t, err)
	assert.True(t, dropped)

	// Dropping again reports absence.
	dropped, err = ctx.Drop("cars")
	require.NoError(t, err)
	assert.False(t, dropped)

	schema, err := ctx.GetSchema("")
	require.NoError(t, err)
	assert.Empty(t, schema.Tables)

	// A redefined table gets a fresh id.
	secondID, err := ctx.EnsureTable("cars", false)
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)
}

func TestReset(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"make": types.String("toyota")}))

	require.NoError(t, ctx.Reset())

	schema, err := ctx.GetSchema("")
	require.NoError(t, err)
	assert.Empty(t, schema.Tables)

	rows := queryRows(t, ctx, "SELECT value FROM cars", nil)
	assert.Empty(t, rows)
}

func TestDefineMany(t *testing.T) {
	ctx := newTestContext(t)

	var calls int
	err := ctx.DefineMany("cars", map[types.StrNum]map[string]types.StrNum{
		types.String("vin1"): {"make": types.String("toyota")},
		types.String("vin2"): {"make": types.String("honda")},
		types.String("vin3"): {"make": types.String("ford")},
	}, func(done, total int) {
		calls++
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	rows := queryRows(t, ctx, "SELECT count FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0][0])
}

func TestDefineManyMixedKeyTypes(t *testing.T) {
	ctx := newTestContext(t)

	err := ctx.DefineMany("cars", map[types.StrNum]map[string]types.StrNum{
		types.String("vin1"): {"make": types.String("toyota")},
		types.Number(2):      {"make": types.String("honda")},
	}, nil)
	assert.ErrorIs(t, err, types.ErrMixedKeyTypes)
}

func TestGetSchema(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"year": types.Number(1992),
		"make": types.String("toyota"),
	}))
	require.NoError(t, ctx.Define("songs", types.String("s1"),
		map[string]types.StrNum{"title": types.String("monkey blues")}))

	schema, err := ctx.GetSchema("")
	require.NoError(t, err)
	assert.Equal(t, []string{"cars", "songs"}, schema.Tables)
	assert.Equal(t, []string{"make", "year"}, schema.Columns["cars"])
	assert.Equal(t, []string{"title"}, schema.Columns["songs"])

	schema, err = ctx.GetSchema("cars")
	require.NoError(t, err)
	assert.Equal(t, []string{"cars"}, schema.Tables)
}

func TestRowIDBridging(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"make": types.String("toyota")}))

	rowID, err := ctx.GetRowID("cars", types.String("vin1"))
	require.NoError(t, err)
	assert.Greater(t, rowID, int64(0))

	key, found, err := ctx.GetRowStringValue("cars", rowID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "vin1", key)

	missing, err := ctx.GetRowID("cars", types.String("ghost"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), missing)

	// Unknown tables compile to an empty result, not an error.
	missing, err = ctx.GetRowID("trucks", types.String("vin1"))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), missing)
}

func TestRowNumberValueBridging(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("beats", types.Number(120),
		map[string]types.StrNum{"genre": types.String("house")}))

	rowID, err := ctx.GetRowID("beats", types.Number(120))
	require.NoError(t, err)
	require.Greater(t, rowID, int64(0))

	key, found, err := ctx.GetRowNumberValue("beats", rowID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(120), key)

	_, found, err = ctx.GetRowNumberValue("beats", 999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestItemMetadata(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"), map[string]types.StrNum{
		"make": types.String("toyota"),
		"year": types.Number(1992),
	}))

	itemID, err := ctx.GetRowID("cars", types.String("vin1"))
	require.NoError(t, err)

	data, err := ctx.GetItemData(itemID)
	require.NoError(t, err)
	require.Len(t, data, 2)

	metadata, err := ctx.GetItemMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.StrNum{
		"make": types.String("toyota"),
		"year": types.Number(1992),
	}, metadata)
}

func TestQueryUnknownAttribute(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("cars", types.String("vin1"),
		map[string]types.StrNum{"make": types.String("toyota")}))

	// Selecting an undefined attribute yields NULL for every row.
	rows := queryRows(t, ctx, "SELECT make, ghost FROM cars", nil)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"toyota", "null"}, rows[0])

	// Filtering on one matches nothing.
	rows = queryRows(t, ctx, "SELECT make FROM cars WHERE ghost = @x",
		map[string]types.StrNum{"@x": types.String("anything")})
	assert.Empty(t, rows)
}

func TestQueryOrderAndLimit(t *testing.T) {
	ctx := newTestContext(t)

	years := map[string]float64{"vin1": 1992, "vin2": 2001, "vin3": 1987}
	for vin, year := range years {
		require.NoError(t, ctx.Define("cars", types.String(vin),
			map[string]types.StrNum{"year": types.Number(year)}))
	}

	rows := queryRows(t, ctx, "SELECT value, year FROM cars ORDER BY year DESC LIMIT 2", nil)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"vin2", "2001"}, rows[0])
	assert.Equal(t, []string{"vin1", "1992"}, rows[1])
}

func TestQueryFullTextMatches(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("articles", types.String("a1"),
		map[string]types.StrNum{"body": types.String("the quick brown fox")}))
	require.NoError(t, ctx.Define("articles", types.String("a2"),
		map[string]types.StrNum{"body": types.String("sleeping dogs lie")}))

	rows := queryRows(t, ctx, "SELECT value, body FROM articles WHERE body MATCHES @q",
		map[string]types.StrNum{"@q": types.String("fox")})
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0][0])
}

func TestExecScalarHelpers(t *testing.T) {
	ctx := newTestContext(t)

	require.NoError(t, ctx.Define("beats", types.Number(120), nil))
	require.NoError(t, ctx.Define("beats", types.Number(140), nil))

	sel, err := ctx.Parse("SELECT count FROM beats")
	require.NoError(t, err)
	n, found, err := ctx.ExecScalarInt64(sel)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), n)

	sel, err = ctx.Parse("SELECT value FROM beats WHERE value > @min ORDER BY value LIMIT 1")
	require.NoError(t, err)
	sel.AddParam("@min", types.Number(130))
	v, found, err := ctx.ExecScalarDouble(sel)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(140), v)

	sel, err = ctx.Parse("SELECT value FROM beats WHERE value > @min")
	require.NoError(t, err)
	sel.AddParam("@min", types.Number(200))
	_, found, err = ctx.ExecScalarDouble(sel)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClosedContext(t *testing.T) {
	ctx := newTestContext(t)
	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())

	err := ctx.Define("cars", types.String("vin1"), nil)
	assert.ErrorIs(t, err, types.ErrClosed)

	_, err = ctx.GetSchema("")
	assert.ErrorIs(t, err, types.ErrClosed)

	_, _, err = ctx.ExecScalarInt64(&types.Select{SelectCols: []string{"count"}, From: "cars"})
	assert.ErrorIs(t, err, types.ErrClosed)
}
