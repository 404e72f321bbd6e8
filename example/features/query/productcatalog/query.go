package productcatalog

const (
	queryType = "ProductCatalog"
)

// Query represents the intent to read the product catalog.
type Query struct {
}

// BuildQuery creates a new Query (currently empty).
func BuildQuery() Query {
	return Query{}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
