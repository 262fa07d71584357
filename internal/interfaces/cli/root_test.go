package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "devflow", root.Use)

	plugin, _, err := root.Find([]string{"plugin"})
	require.NoError(t, err)

	subcommands := make([]string, 0)
	for _, cmd := range plugin.Commands() {
		subcommands = append(subcommands, cmd.Name())
	}
	for _, name := range []string{"list", "installed", "info", "install", "remove", "update", "browse"} {
		assert.Contains(t, subcommands, name)
	}
}

func TestBrowseModelNavigation(t *testing.T) {
	index := &plugindomain.RegistryIndex{
		LastUpdated: "2026-01-15T00:00:00Z",
		Plugins: map[string]plugindomain.RegistryEntry{
			"git":  {DisplayName: "Git Workflow", LatestVersion: "1.2.0", Category: plugindomain.CategoryOfficial},
			"jira": {DisplayName: "Jira", LatestVersion: "0.4.1", Category: plugindomain.CategoryCommunity},
		},
	}

	model := newBrowseModel(index, []string{"git"})
	require.Len(t, model.items, 2)
	// Sorted by id, installed flag carried over.
	assert.Equal(t, "git", model.items[0].id)
	assert.True(t, model.items[0].installed)
	assert.False(t, model.items[1].installed)

	view := model.View()
	assert.Contains(t, view, "Git Workflow")
	assert.Contains(t, view, "0.4.1")
}
