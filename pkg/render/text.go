package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/knoxfighter/factorio-lib/pkg/saves/header"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// Text renders a save as a styled summary. Styling degrades to plain text
// when the output is not a terminal.
func Text(doc Document) string {
	var sb strings.Builder
	h := doc.Header

	title := h.Name
	if title == "" {
		title = "(unnamed)"
	}
	sb.WriteString(titleStyle.Render("💾 " + title))
	sb.WriteString("\n")
	if doc.Path != "" {
		sb.WriteString(dimStyle.Render(doc.Path))
		sb.WriteString("\n")
	}

	line := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-22s", label)))
		sb.WriteString(valueStyle.Render(value))
		sb.WriteString("\n")
	}

	line("Version", fmt.Sprintf("%s (era %s)", h.Version, h.Era))
	if h.QualityVersion != nil {
		line("Quality version", fmt.Sprintf("%d", *h.QualityVersion))
	}
	if h.Campaign != "" {
		line("Campaign", h.Campaign)
	}
	line("Base mod", h.BaseMod)
	line("Difficulty", h.Difficulty.String())
	line("Finished", yesNo(h.Finished))
	line("Player won", yesNo(h.PlayerWon))
	if h.NextLevel != "" {
		line("Next level", h.NextLevel)
	}
	line("Can continue", yesNo(h.CanContinue))
	line("Finished, continuing", yesNo(h.FinishedButContinuing))
	line("Saving replay", yesNo(h.SavingReplay))
	if h.AllowNonAdminDebugOptions != nil {
		line("Non-admin debug", yesNo(*h.AllowNonAdminDebugOptions))
	}
	line("Loaded from", fmt.Sprintf("%s (build %d)", h.LoadedFrom, h.LoadedFromBuild))
	line("Allowed commands", h.AllowedCommands.String())
	if h.LargeBlueprintSize != nil {
		line("Large blueprints", yesNo(*h.LargeBlueprintSize))
	}
	if doc.Digest != "" {
		line("Digest", doc.Digest)
	}

	line("Mods", fmt.Sprintf("%d", len(h.Mods)))
	for _, m := range h.Mods {
		sb.WriteString(valueStyle.Render("    • " + m.String()))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Rules renders the resolved rule table, one era per block.
func Rules(rules []header.Rules) string {
	var sb strings.Builder
	for _, r := range rules {
		sb.WriteString(titleStyle.Render("Era " + r.Era.String()))
		if len(r.Overrides) > 0 {
			sb.WriteString(dimStyle.Render("  overrides: " + strings.Join(r.Overrides, ", ")))
		}
		sb.WriteString("\n")

		rows := [][2]string{
			{"length", r.Length.String()},
			{"mod_name_length", r.ModNameLength.String()},
			{"version_triple", r.VersionTriple.String()},
			{"build", r.Build.String()},
			{"quality_version", yesNo(r.QualityVersion)},
			{"debug_options", yesNo(r.DebugOptions)},
			{"mod_checksum", yesNo(r.ModChecksum)},
			{"large_blueprint_size", yesNo(r.LargeBlueprintSize)},
		}
		for _, row := range rows {
			sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-22s", row[0])))
			sb.WriteString(valueStyle.Render(row[1]))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
