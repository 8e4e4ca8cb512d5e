package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mchain/internal/ir"
)

// marshalSplits converts the split table to canonical JSON TEXT for storage.
func marshalSplits(splits [][]int) (string, error) {
	rows := make([]any, len(splits))
	for i, row := range splits {
		cells := make([]any, len(row))
		for j, k := range row {
			cells[j] = k
		}
		rows[i] = cells
	}
	data, err := ir.MarshalCanonicalValue(rows)
	if err != nil {
		return "", fmt.Errorf("marshal splits: %w", err)
	}
	return string(data), nil
}

// marshalSteps converts plan steps to canonical JSON TEXT for storage.
func marshalSteps(steps []ir.PlanStep) (string, error) {
	arr := make([]any, len(steps))
	for i, st := range steps {
		arr[i] = map[string]any{
			"expr":   st.Expr,
			"kernel": st.Kernel,
			"rows":   st.Rows,
			"inner":  st.Inner,
			"cols":   st.Cols,
			"flops":  st.Flops,
		}
	}
	data, err := ir.MarshalCanonicalValue(arr)
	if err != nil {
		return "", fmt.Errorf("marshal steps: %w", err)
	}
	return string(data), nil
}

// unmarshalSplits parses the split table. Cells are small ints, so the
// float64 detour of encoding/json is exact.
func unmarshalSplits(data string) ([][]int, error) {
	var splits [][]int
	if err := json.Unmarshal([]byte(data), &splits); err != nil {
		return nil, fmt.Errorf("unmarshal splits: %w", err)
	}
	return splits, nil
}

// unmarshalSteps parses plan steps. Flop counts decode straight into int64
// fields, so values above 2^53 keep full precision.
func unmarshalSteps(data string) ([]ir.PlanStep, error) {
	steps := []ir.PlanStep{}
	if data == "" || data == "[]" {
		return steps, nil
	}
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return steps, nil
}
