// Package output serializes prediction results to JSON and CSV. Tasks are
// always emitted in the fixed order E_form, E_homo, E_lumo, E_gap, dipole,
// charges; placeholder NaN values become null in JSON and empty CSV cells.
package output

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/molforge/qmdelta/internal/calc"
	"github.com/molforge/qmdelta/pkg/errors"
)

// presentTasks returns the tasks carried by res, in canonical order.
func presentTasks(res *calc.Result) []calc.Task {
	var tasks []calc.Task
	for _, t := range calc.AllTasks {
		if t == calc.TaskCharges {
			if res.Charges != nil {
				tasks = append(tasks, t)
			}
			continue
		}
		if _, ok := res.Values[t]; ok {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// jsonFloat maps NaN to null so the document stays standard JSON.
func jsonFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// WriteJSON emits one nested array per task, aligned 1:1 with the input.
func WriteJSON(w io.Writer, res *calc.Result) error {
	doc := make(map[string]interface{})
	for _, t := range presentTasks(res) {
		if t == calc.TaskCharges {
			rows := make([][]interface{}, len(res.Charges))
			for i, mol := range res.Charges {
				row := make([]interface{}, len(mol))
				for j, v := range mol {
					row[j] = jsonFloat(v)
				}
				rows[i] = row
			}
			doc[string(t)] = rows
			continue
		}
		vals := res.Values[t]
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			row[i] = jsonFloat(v)
		}
		doc[string(t)] = row
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, errors.CodeIO, "encoding result JSON")
	}
	return nil
}

// WriteCSV emits one row per molecule with a leading index column. Charge
// arrays are joined with semicolons inside their cell.
func WriteCSV(w io.Writer, res *calc.Result) error {
	tasks := presentTasks(res)
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(tasks)+1)
	header = append(header, "index")
	for _, t := range tasks {
		header = append(header, string(t))
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.CodeIO, "writing CSV header")
	}

	n := rowCount(res, tasks)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(tasks)+1)
		row = append(row, strconv.Itoa(i))
		for _, t := range tasks {
			if t == calc.TaskCharges {
				row = append(row, chargeCell(res.Charges[i]))
				continue
			}
			row = append(row, floatCell(res.Values[t][i]))
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, errors.CodeIO, "writing CSV row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "flushing CSV")
	}
	return nil
}

func rowCount(res *calc.Result, tasks []calc.Task) int {
	for _, t := range tasks {
		if t == calc.TaskCharges {
			return len(res.Charges)
		}
		return len(res.Values[t])
	}
	return 0
}

func floatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func chargeCell(vals []float64) string {
	if len(vals) == 1 && math.IsNaN(vals[0]) {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = floatCell(v)
	}
	return strings.Join(parts, ";")
}
