package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"zerowaste/internal/seed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("LOG_LEVEL", "")
	storeDriver, logLevel = "", ""

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.jsonl.gz")

	out, err := execute(t, "seed", "generate", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 organizations and 8 donations")

	out, err = execute(t, "--driver", "memory", "--log-level", "error", "seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 4 organizations, 8 donations (4 reserved, 2 completed)")
}

func TestDashboard_SampleOnMemoryStore(t *testing.T) {
	bistro := seed.Sample().Organizations[0].ID.String()

	out, err := execute(t, "--driver", "memory", "--log-level", "error",
		"dashboard", "--sample", "--kind", "establishment", "--id", bistro, "--sort", "name", "-q", "soup")
	require.NoError(t, err)

	assert.Contains(t, out, "Vegetable soup")
	assert.NotContains(t, out, "Grilled chicken")
	assert.Contains(t, out, "active: page 1 of 1, 1 items, sort name asc")
}

func TestDashboard_RejectsBadFlags(t *testing.T) {
	_, err := execute(t, "--driver", "memory", "dashboard", "--kind", "charity", "--id", "x")
	require.Error(t, err)

	_, err = execute(t, "--driver", "memory", "dashboard", "--kind", "FOOD_BANK", "--id", seed.Sample().Organizations[2].ID.String(), "--sort", "price")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort key")

	_, err = execute(t, "--driver", "memory", "dashboard", "--kind", "FOOD_BANK", "--id", seed.Sample().Organizations[2].ID.String(),
		"--sort", "distance", "--distances", "bread:2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid donation id")
}

func TestTransition_UnknownDonation(t *testing.T) {
	north := seed.Sample().Organizations[2].ID.String()

	_, err := execute(t, "--driver", "memory", "--log-level", "error",
		"accept", "--sample", "--kind", "FOOD_BANK", "--id", north, "00000000-0000-0000-0000-000000000001")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not on the board")
}
