package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	plugindomain "github.com/devflow-sh/devflow/internal/core/domain/plugin"
)

// newPluginBrowseCommand creates the interactive registry browser
func newPluginBrowseCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the plugin registry interactively",
		Long: `Open an interactive browser over the plugin registry.

Navigate with the arrow keys or j/k, press enter to toggle plugin details,
and q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd)
			if err != nil {
				return err
			}

			index, err := p.registry.FetchRegistry(context.Background(), refresh)
			if err != nil {
				return err
			}
			installed, err := p.manager.ListInstalled()
			if err != nil {
				return err
			}

			model := newBrowseModel(index, installed)
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("registry browser failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a registry refresh")
	return cmd
}

var (
	browseTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	browseDetailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	browseHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type browseItem struct {
	id        string
	entry     plugindomain.RegistryEntry
	installed bool
}

// browseModel is the Bubble Tea state for the registry browser
type browseModel struct {
	items       []browseItem
	lastUpdated string
	cursor      int
	showDetail  bool
	width       int
	height      int
}

func newBrowseModel(index *plugindomain.RegistryIndex, installed []string) browseModel {
	installedSet := make(map[string]bool, len(installed))
	for _, id := range installed {
		installedSet[id] = true
	}

	items := make([]browseItem, 0, len(index.Plugins))
	for _, id := range sortedIDs(index.Plugins) {
		items = append(items, browseItem{
			id:        id,
			entry:     index.Plugins[id],
			installed: installedSet[id],
		})
	}

	return browseModel{items: items, lastUpdated: index.LastUpdated}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			m.showDetail = !m.showDetail
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(browseTitleStyle.Render("devflow plugin registry"))
	b.WriteString(browseHelpStyle.Render(fmt.Sprintf("  %d plugins, updated %s", len(m.items), m.lastUpdated)))
	b.WriteString("\n\n")

	for i, item := range m.items {
		marker := "  "
		if item.installed {
			marker = verifiedStyle.Render("● ")
		}
		line := fmt.Sprintf("%s%-20s %-10s %s", marker, item.id, item.entry.LatestVersion, item.entry.DisplayName)
		if i == m.cursor {
			line = browseSelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.showDetail && m.cursor < len(m.items) {
		b.WriteString("\n")
		b.WriteString(browseDetailStyle.Render(m.detailView(m.items[m.cursor])))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("↑/↓ navigate · enter details · q quit"))
	return b.String()
}

func (m browseModel) detailView(item browseItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", item.entry.DisplayName, item.entry.Description)
	fmt.Fprintf(&b, "Version:  %s\n", item.entry.LatestVersion)
	fmt.Fprintf(&b, "Category: %s", item.entry.Category)
	if item.entry.Verified {
		fmt.Fprintf(&b, " %s", verifiedStyle.Render("verified"))
	}
	if len(item.entry.Dependencies) > 0 {
		fmt.Fprintf(&b, "\nDepends:  %s", strings.Join(item.entry.Dependencies, ", "))
	}
	if item.entry.Homepage != "" {
		fmt.Fprintf(&b, "\nHomepage: %s", item.entry.Homepage)
	}
	if item.installed {
		fmt.Fprintf(&b, "\n\nInstalled. Run 'devflow plugin update %s' to refresh", item.id)
	} else {
		fmt.Fprintf(&b, "\n\nRun 'devflow plugin install %s' to install", item.id)
	}
	return b.String()
}

func sortedIDs(plugins map[string]plugindomain.RegistryEntry) []string {
	ids := make([]string, 0, len(plugins))
	for id := range plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
