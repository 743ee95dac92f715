package mapping

// DefaultTable is used when no table or collection is named in the question
const DefaultTable = "products"

// TableSynonyms maps a phrase to a canonical table or collection name
// Backend-agnostic: the same names are used for SQL tables and Mongo collections
var TableSynonyms = map[string]string{
	"sales":        "transactions",
	"transactions": "transactions",
	"messages":     "messages",
	"coffee_sales": "coffee_sales",
	"coffee sales": "coffee_sales",
	"stores":       "stores",
	"users":        "users",
	"customers":    "customers",
	"products":     "products",
	"orders":       "orders",
}

// TablePhrases - TableSynonyms keys, longest first then alphabetical
var TablePhrases []string

func init() {
	TablePhrases = make([]string, 0, len(TableSynonyms))
	for phrase := range TableSynonyms {
		TablePhrases = append(TablePhrases, phrase)
	}
	SortLongestFirst(TablePhrases)
}

// IsKnownTable checks if a name is a canonical table or collection
func IsKnownTable(name string) bool {
	for _, table := range TableSynonyms {
		if table == name {
			return true
		}
	}
	return false
}
