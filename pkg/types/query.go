package types

// Criteria is one WHERE clause term: column, operator, and the name of
// the parameter holding the comparison value (e.g. "@artist").
type Criteria struct {
	Name      string
	Op        string
	ParamName string
}

// CriteriaCombine selects how criteria within one set are joined.
type CriteriaCombine string

const (
	CombineAnd CriteriaCombine = "AND"
	CombineOr  CriteriaCombine = "OR"
)

// CriteriaSet is a parenthesized group of criteria joined by Combine.
// Sets themselves are always ANDed together in the final WHERE clause.
type CriteriaSet struct {
	Combine  CriteriaCombine
	Criteria []Criteria
}

// NewCriteriaSet returns an empty AND-combined set.
func NewCriteriaSet() *CriteriaSet {
	return &CriteriaSet{Combine: CombineAnd}
}

// AddCriteria appends a criteria to the set.
func (cs *CriteriaSet) AddCriteria(c Criteria) {
	cs.Criteria = append(cs.Criteria, c)
}

// GenWhere wraps criteria into the single-set WHERE list used by most
// queries.
func GenWhere(criteria ...Criteria) []CriteriaSet {
	set := CriteriaSet{Combine: CombineAnd, Criteria: criteria}
	return []CriteriaSet{set}
}

// Order is one ORDER BY entry.
type Order struct {
	Field      string
	Descending bool
}

// Select is the structured form of a virtual query, produced by the
// parser or built directly, then fed to the compiler.
type Select struct {
	SelectCols []string
	From       string
	Where      []CriteriaSet
	OrderBy    []Order
	Limit      int

	// Params maps parameter names (with the "@" prefix) to values.
	Params map[string]StrNum
}

// AddParam binds a named parameter value. Returns the Select for
// chaining.
func (s *Select) AddParam(name string, value StrNum) *Select {
	if s.Params == nil {
		s.Params = make(map[string]StrNum)
	}
	s.Params[name] = value
	return s
}

// AddOrder appends an ORDER BY entry. Returns the Select for chaining.
func (s *Select) AddOrder(field string, descending bool) *Select {
	s.OrderBy = append(s.OrderBy, Order{Field: field, Descending: descending})
	return s
}

// Schema is the introspection response: virtual table names mapped to
// their column names, with table order preserved.
type Schema struct {
	Tables  []string
	Columns map[string][]string
}

// Add records a column under a table, keeping first-seen table order.
func (s *Schema) Add(table, column string) {
	if s.Columns == nil {
		s.Columns = make(map[string][]string)
	}
	if _, ok := s.Columns[table]; !ok {
		s.Tables = append(s.Tables, table)
	}
	s.Columns[table] = append(s.Columns[table], column)
}
