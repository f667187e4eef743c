package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/application/viewer"
	apihttp "github.com/turtacn/molscope/internal/interfaces/http"
	"github.com/turtacn/molscope/internal/interfaces/http/handlers"
	"github.com/turtacn/molscope/internal/testutil"
	"github.com/turtacn/molscope/pkg/errors"
)

// writeFile writes content under a fresh temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func emptyConfig(t *testing.T) string {
	return writeFile(t, "molscope.yaml", "log:\n  level: warn\n")
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "molscope", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"scene", "frame", "inspect", "convert", "version"} {
		assert.True(t, names[want], want)
	}

	for _, flag := range []string{"config", "log-level", "output", "verbose", "no-color", "timeout", "server"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRootCommand_UnknownSubcommand(t *testing.T) {
	_, err := run(t, "", "nosuchcommand")
	assert.Error(t, err)
}

func TestRootCommand_BadLogLevel(t *testing.T) {
	_, err := run(t, "", "--config", emptyConfig(t), "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "logger initialization failed")
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
	assert.ErrorContains(t, err, "config initialization failed")
}

func TestVersionCmd(t *testing.T) {
	orig := Version
	Version = "1.2.3"
	defer func() { Version = orig }()

	out, err := run(t, "", "--config", emptyConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "molscope 1.2.3")

	out, err = run(t, "", "--config", emptyConfig(t), "-o", "json", "version")
	require.NoError(t, err)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestSceneCmd_Text(t *testing.T) {
	path := writeFile(t, "water.mol", testutil.WaterRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "scene", path)

	require.NoError(t, err)
	assert.Contains(t, out, "water")
	assert.Contains(t, out, "H2O")
	assert.Contains(t, out, "3 spheres, 2 cylinders")
	assert.Contains(t, out, "fov 75.000")
}

func TestSceneCmd_JSONFromStdin(t *testing.T) {
	out, err := run(t, testutil.EtheneRecord(), "--config", emptyConfig(t), "-o", "json", "scene", "-", "--fov", "40")
	require.NoError(t, err)

	var sc viewer.Scene
	require.NoError(t, json.Unmarshal([]byte(out), &sc))
	assert.Equal(t, "C2H4", sc.Composition.Formula)
	assert.Len(t, sc.Spheres(), 6)
	// one double bond plus four singles
	assert.Len(t, sc.Cylinders(), 6)
	assert.Equal(t, 40.0, sc.Camera.FOV)
	assert.Equal(t, viewer.Digest(testutil.EtheneRecord()), sc.Digest)
}

func TestSceneCmd_Table(t *testing.T) {
	path := writeFile(t, "water.mol", testutil.WaterRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "-o", "table", "scene", path)

	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(out), "PROPERTY")
	assert.Contains(t, out, "Cylinders")
	assert.Contains(t, out, "H2O")
}

func TestSceneCmd_Malformed(t *testing.T) {
	path := writeFile(t, "bad.mol", "bad\n\n\n  3  0\n")

	_, err := run(t, "", "--config", emptyConfig(t), "scene", path)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedRecord))
}

func TestSceneCmd_RequiresInput(t *testing.T) {
	_, err := run(t, "", "--config", emptyConfig(t), "scene")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = run(t, "", "--config", emptyConfig(t), "scene", filepath.Join(t.TempDir(), "missing.mol"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestSceneCmd_Remote(t *testing.T) {
	svc := viewer.NewService(viewer.DefaultOptions(), viewer.Deps{})
	server := httptest.NewServer(apihttp.NewRouter(apihttp.RouterConfig{
		SceneHandler:  handlers.NewSceneHandler(svc, 0, nil),
		HealthHandler: handlers.NewHealthHandler("test"),
	}))
	defer server.Close()
	path := writeFile(t, "water.mol", testutil.WaterRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "--server", server.URL, "scene", path)

	require.NoError(t, err)
	assert.Contains(t, out, "H2O")
	assert.Contains(t, out, viewer.Digest(testutil.WaterRecord()))
}

func TestFrameCmd_ExplicitBox(t *testing.T) {
	out, err := run(t, "", "--config", emptyConfig(t), "-o", "json",
		"frame", "--min", "-1,-1,-1", "--max", "1, 1, 1", "--fov", "90")
	require.NoError(t, err)

	var pose framedPose
	require.NoError(t, json.Unmarshal([]byte(out), &pose))
	assert.InDelta(t, 1.5, pose.Camera.Distance, 1e-9)
	assert.InDelta(t, 1.5, pose.Camera.Position.Z, 1e-9)
	assert.Equal(t, 0.0, pose.Camera.Target.X)
	assert.Equal(t, 1.0, pose.Camera.Up.Y)
}

func TestFrameCmd_FromRecord(t *testing.T) {
	path := writeFile(t, "water.mol", testutil.WaterRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "frame", path)

	require.NoError(t, err)
	assert.Contains(t, out, "fov 75.000")
}

func TestFrameCmd_BadInput(t *testing.T) {
	_, err := run(t, "", "--config", emptyConfig(t), "frame", "--min", "1,2", "--max", "1,2,3")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = run(t, "", "--config", emptyConfig(t), "frame", "--min", "a,b,c", "--max", "1,2,3")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = run(t, "", "--config", emptyConfig(t), "frame")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestInspectCmd_Tables(t *testing.T) {
	path := writeFile(t, "ethene.mol", testutil.EtheneRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "inspect", path)

	require.NoError(t, err)
	assert.Contains(t, out, "ethene")
	assert.Contains(t, out, "C2H4")
	assert.Contains(t, out, "atoms: 6 (heavy 2)  bonds: 5")
	upper := strings.ToUpper(out)
	assert.Contains(t, upper, "ELEMENT")
	assert.Contains(t, upper, "STROKES")
	assert.Contains(t, out, "1.232")
	assert.Contains(t, out, "order 1: 4")
	assert.Contains(t, out, "order 2: 1")
}

func TestInspectCmd_JSON(t *testing.T) {
	path := writeFile(t, "water.mol", testutil.WaterRecord())

	out, err := run(t, "", "--config", emptyConfig(t), "-o", "json", "inspect", path, "--bonds=false")
	require.NoError(t, err)

	var got inspection
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.Molecule)
	assert.Len(t, got.Molecule.Atoms, 3)
	assert.Equal(t, 1, got.Composition.HeavyAtomCount)
}

func TestConvertCmd_Disabled(t *testing.T) {
	_, err := run(t, "", "--config", emptyConfig(t), "convert", "--smiles", "O")
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))

	_, err = run(t, "", "--config", emptyConfig(t), "convert")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestConvertCmd_UsesConfiguredConverter(t *testing.T) {
	converterSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert", r.URL.Path)
		var req struct {
			SMILES string `json:"smiles"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "O", req.SMILES)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"mol_block": testutil.WaterRecord()})
	}))
	defer converterSrv.Close()
	cfgPath := writeFile(t, "molscope.yaml",
		"converter:\n  enabled: true\n  base_url: \""+converterSrv.URL+"\"\n  max_retries: 0\n")

	out, err := run(t, "", "--config", cfgPath, "convert", "--smiles", "O")
	require.NoError(t, err)
	assert.Equal(t, testutil.WaterRecord(), out)

	out, err = run(t, "", "--config", cfgPath, "scene", "--smiles", "O")
	require.NoError(t, err)
	assert.Contains(t, out, "H2O")
}

func TestFormatTable_EmptyHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatTable(&buf, nil, [][]string{{"x"}}))
	assert.Empty(t, buf.String())
}

//Personal.AI order the ending
