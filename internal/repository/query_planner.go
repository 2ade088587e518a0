package repository

// AccessPath identifies which key or index a ticket read uses.
type AccessPath int

const (
	// PathBySubmitter queries the primary key scoped to one submitter.
	PathBySubmitter AccessPath = iota
	// PathByStatus queries the (status, submitted_at) secondary index.
	PathByStatus
	// PathByType queries the (expense_type, submitted_at) secondary index.
	PathByType
	// PathScan reads every ticket, ordered like the status index.
	PathScan
)

// Filters is the optional filter set for a ticket read. An empty string
// means the filter is absent.
type Filters struct {
	Submitter string
	Status    string
	Type      string
}

// Plan is the read-access descriptor produced for a filter set: the
// chosen path, its key value, and the filters the path does not cover.
type Plan struct {
	Path     AccessPath
	Key      string
	Residual Filters
}

// PlanQuery selects the single read path for the given filters. A
// key-bearing filter always wins over a scan; the submitter key is
// preferred over either secondary index, and status over type. Filters
// not covered by the chosen path become residuals applied to its result
// set rather than separate index lookups.
func PlanQuery(f Filters) Plan {
	switch {
	case f.Submitter != "":
		return Plan{
			Path:     PathBySubmitter,
			Key:      f.Submitter,
			Residual: Filters{Status: f.Status, Type: f.Type},
		}
	case f.Status != "":
		return Plan{
			Path:     PathByStatus,
			Key:      f.Status,
			Residual: Filters{Type: f.Type},
		}
	case f.Type != "":
		return Plan{Path: PathByType, Key: f.Type}
	default:
		return Plan{Path: PathScan}
	}
}
