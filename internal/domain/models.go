package domain

// Operation names the connector call a record came back from.
type Operation string

const (
	OperationGet  Operation = "get"
	OperationPost Operation = "post"
)

// ChangeRecord is one table row returned by the connector.
type ChangeRecord struct {
	Table     string
	Operation Operation
	ID        string
	Number    string
	Fields    map[string]any
}
