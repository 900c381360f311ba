// Package freeform provides schema-less virtual tables on top of
// SQLite. Callers describe entities with a table name, a primary key
// (string or number), and an open-ended set of named attribute values;
// the library maps these onto a fixed physical schema, creating
// columns and tables on demand, and answers a restrictive SQL dialect
// compiled into physical joins.
//
// Example:
//
//	ctx, err := freeform.Open("app.db")
//	if err != nil {
//	    return err
//	}
//	defer ctx.Close()
//
//	err = ctx.Define("cars", types.String("vin-123"), map[string]types.StrNum{
//	    "make": types.String("Toyota"),
//	    "year": types.Number(2019),
//	})
//
//	sel, err := ctx.Parse("SELECT make, year FROM cars WHERE year >= @min ORDER BY year LIMIT 10")
//	sel.AddParam("@min", types.Number(2015))
//	reader, err := ctx.ExecQuery(sel)
//	for reader.Read() {
//	    fmt.Println(reader.GetString(0), reader.GetInt64(1))
//	}
package freeform
