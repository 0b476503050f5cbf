package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/sdcpipeline/datamodel"
	"github.com/c360studio/sdcpipeline/template"
	"github.com/c360studio/sdcpipeline/vocabulary/sdc4"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	model := &datamodel.DataModel{
		CTID:        "dm01aaa",
		Label:       "State Population",
		ClusterCTID: "cl01aaa",
		Fields: map[string]datamodel.FieldMeta{
			"abc123": {Label: "Population Count", Kind: sdc4.KindCount},
		},
		FieldOrder: []string{"abc123"},
	}
	require.NoError(t, model.Validate())

	modelDir := filepath.Join(root, "templates", "dm01aaa")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	raw, err := json.Marshal(model)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "model.json"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "skeleton.xml"),
		[]byte(template.WriteSkeleton(model)), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "schemas"), 0o755))

	configYAML := `templates:
  dir: templates
schemas:
  dir: schemas
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(configYAML), 0o644))

	return root
}

func TestLoadEnvResolvesRelativeDirs(t *testing.T) {
	root := writeWorkspace(t)

	env, err := LoadEnv(&RootOptions{
		ConfigPath: filepath.Join(root, "config.yaml"),
		LogLevel:   "error",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "templates"), env.Config.Templates.Dir)
	assert.Equal(t, filepath.Join(root, "schemas"), env.Config.Schemas.Dir)
	assert.False(t, env.Config.GraphDB.Enabled)
}

func TestLoadEnvMissingConfig(t *testing.T) {
	_, err := LoadEnv(&RootOptions{ConfigPath: "/no/such/config.yaml", LogLevel: "error"})
	assert.Error(t, err)
}

func TestModelsCmdListsTemplates(t *testing.T) {
	root := writeWorkspace(t)

	opts := &RootOptions{
		ConfigPath: filepath.Join(root, "config.yaml"),
		LogLevel:   "error",
	}
	cmd := NewModelsCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "dm-dm01aaa: State Population (1 fields)")
}

func TestTemplateCmdPrintsSkeleton(t *testing.T) {
	root := writeWorkspace(t)

	opts := &RootOptions{
		ConfigPath: filepath.Join(root, "config.yaml"),
		LogLevel:   "error",
	}
	cmd := NewTemplateCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dm01aaa"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "<dm-dm01aaa")
	assert.Contains(t, out.String(), sdc4.PlaceholderPrefix)
}
