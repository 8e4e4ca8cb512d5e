package ir

// Version constants for the IR encoding and the optimizer.
const (
	// IRVersion is the canonical expression encoding version.
	IRVersion = "1"

	// OptimizerVersion is the mchain optimizer version.
	OptimizerVersion = "0.1.0"
)
