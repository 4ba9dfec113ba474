package servicenow

// tablePathPrefix is the Table API namespace every request goes through.
const tablePathPrefix = "/api/now/table/"

// BuildURI returns the table API path for table, with query appended verbatim
// when non-empty. Neither argument is escaped.
func BuildURI(table, query string) string {
	uri := tablePathPrefix + table
	if query != "" {
		uri += "?" + query
	}
	return uri
}
