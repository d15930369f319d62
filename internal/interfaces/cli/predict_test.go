package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterXYZ = `3
water
O 0.0000 0.0000 0.1200
H 0.9600 0.0000 0.1000
H -0.2400 0.9300 0.1000
`

func writeTestWeights(t *testing.T, dir string) {
	t.Helper()
	blobs := map[string]string{
		"single_energy_direct": `{"per_atom": false, "width": 1, "bias": [0], "contributions": {"O": [1.0], "H": [0.5]}}`,
		"multitask_direct":     `{"per_atom": false, "width": 4, "bias": [1, 2, 3, 4], "contributions": {}}`,
		"charges_direct":       `{"per_atom": true, "width": 1, "bias": [0], "contributions": {"O": [-0.4], "H": [0.2]}}`,
	}
	for id, blob := range blobs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(blob), 0o644))
	}
}

func TestPredictCommand_EndToEnd(t *testing.T) {
	weightDir := t.TempDir()
	writeTestWeights(t, weightDir)
	t.Setenv("QMDELTA_WEIGHTS_DIR", weightDir)

	molFile := filepath.Join(t.TempDir(), "water.xyz")
	require.NoError(t, os.WriteFile(molFile, []byte(waterXYZ), 0o644))
	outFile := filepath.Join(t.TempDir(), "out.json")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{
		"predict", molFile,
		"--direct",
		"--tasks", "E_form,charges",
		"--outfile", outFile,
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	payload, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &doc))

	eform, ok := doc["E_form"].([]interface{})
	require.True(t, ok, "E_form missing: %v", doc)
	require.Len(t, eform, 1)
	assert.Equal(t, 2.0, eform[0])

	charges, ok := doc["charges"].([]interface{})
	require.True(t, ok)
	require.Len(t, charges, 1)
	assert.Len(t, charges[0], 3)
}

func TestPredictCommand_CSVOutput(t *testing.T) {
	weightDir := t.TempDir()
	writeTestWeights(t, weightDir)
	t.Setenv("QMDELTA_WEIGHTS_DIR", weightDir)

	molFile := filepath.Join(t.TempDir(), "water.xyz")
	require.NoError(t, os.WriteFile(molFile, []byte(waterXYZ), 0o644))
	outFile := filepath.Join(t.TempDir(), "out.csv")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{
		"predict", molFile,
		"--direct", "--tasks", "E_form",
		"--csv", "--outfile", outFile,
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	payload, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "index,E_form")
	assert.Contains(t, string(payload), "0,2")
}

func TestPredictCommand_UnknownTask(t *testing.T) {
	weightDir := t.TempDir()
	writeTestWeights(t, weightDir)
	t.Setenv("QMDELTA_WEIGHTS_DIR", weightDir)

	molFile := filepath.Join(t.TempDir(), "water.xyz")
	require.NoError(t, os.WriteFile(molFile, []byte(waterXYZ), 0o644))

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"predict", molFile, "--direct", "--tasks", "entropy", "--log-level", "error"})
	assert.Error(t, cmd.Execute())
}

func TestPredictCommand_MutuallyExclusiveModes(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"predict", "in.xyz", "--direct", "--delta"})
	assert.Error(t, cmd.Execute())
}
