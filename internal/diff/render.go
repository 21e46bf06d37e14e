package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/everstacklabs/modelsync/internal/catalog"
)

// RenderDiffSummary formats a changeset for the terminal.
func RenderDiffSummary(cs *ChangeSet) string {
	var sb strings.Builder

	c := cs.Counts()
	fmt.Fprintf(&sb, "%s: %s created, %s updated, %d unchanged",
		color.CyanString(cs.Provider),
		color.GreenString("%d", c.Created),
		color.YellowString("%d", c.Updated),
		c.Unchanged)
	if c.Skipped > 0 {
		fmt.Fprintf(&sb, ", %d skipped", c.Skipped)
	}
	if c.Orphaned > 0 {
		fmt.Fprintf(&sb, ", %s orphaned", color.RedString("%d", c.Orphaned))
	}
	if c.Deleted > 0 {
		fmt.Fprintf(&sb, ", %s deleted", color.RedString("%d", c.Deleted))
	}
	sb.WriteString("\n")

	for _, m := range cs.Created {
		fmt.Fprintf(&sb, "  %s %s\n", color.GreenString("+"), m.ID)
	}
	for _, u := range cs.Updated {
		fmt.Fprintf(&sb, "  %s %s\n", color.YellowString("~"), u.ID)
		for _, fc := range u.Changes {
			fmt.Fprintf(&sb, "      %s: %s → %s\n", fc.Field, formatValue(fc.OldValue), formatValue(fc.NewValue))
		}
	}
	for _, o := range cs.Orphans {
		fmt.Fprintf(&sb, "  %s %s\n", color.RedString("-"), o.ID)
	}
	for _, r := range cs.PossibleRenames {
		fmt.Fprintf(&sb, "  %s %s → %s (%s)\n", color.HiBlackString("?"), r.OldID, r.NewID, r.Reason)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// RenderPRBody formats a changeset as a markdown pull request body.
func RenderPRBody(cs ChangeSet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s catalog sync\n\n", cs.Provider)

	c := cs.Counts()
	sb.WriteString("| Created | Updated | Unchanged | Orphaned | Deleted |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d |\n\n", c.Created, c.Updated, c.Unchanged, c.Orphaned, c.Deleted)

	if len(cs.Created) > 0 {
		sb.WriteString("### New models\n\n")
		for _, m := range cs.Created {
			fmt.Fprintf(&sb, "- `%s`%s\n", m.ID, describe(m.Model))
		}
		sb.WriteString("\n")
	}

	if len(cs.Updated) > 0 {
		sb.WriteString("### Updated models\n\n")
		for _, u := range cs.Updated {
			fmt.Fprintf(&sb, "<details><summary><code>%s</code> (%d fields)</summary>\n\n", u.ID, len(u.Changes))
			sb.WriteString("| Field | Old | New |\n|---|---|---|\n")
			for _, fc := range u.Changes {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", fc.Field, formatValue(fc.OldValue), formatValue(fc.NewValue))
			}
			sb.WriteString("\n</details>\n\n")
		}
	}

	if len(cs.Orphans) > 0 {
		if len(cs.Deleted) > 0 {
			sb.WriteString("### Removed models\n\n")
		} else {
			sb.WriteString("### Orphaned models\n\nNo longer reported by the provider. Review before removing.\n\n")
		}
		for _, o := range cs.Orphans {
			fmt.Fprintf(&sb, "- `%s`\n", o.ID)
		}
		sb.WriteString("\n")
	}

	if len(cs.PossibleRenames) > 0 {
		sb.WriteString("### Possible renames\n\n")
		for _, r := range cs.PossibleRenames {
			fmt.Fprintf(&sb, "- `%s` → `%s` (%s)\n", r.OldID, r.NewID, r.Reason)
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func describe(m *catalog.Model) string {
	if m == nil {
		return ""
	}
	var parts []string
	if m.Name != "" {
		parts = append(parts, m.Name)
	}
	if m.Limit.Context > 0 {
		parts = append(parts, fmt.Sprintf("%dk context", m.Limit.Context/1000))
	}
	if m.Cost != nil {
		parts = append(parts, fmt.Sprintf("$%g/$%g per 1M", m.Cost.Input, m.Cost.Output))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, ", ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "∅"
	case string:
		if x == "" {
			return `""`
		}
		return x
	case []string:
		return "[" + strings.Join(x, ", ") + "]"
	case float64:
		return fmt.Sprintf("%g", x)
	case catalog.Cost:
		return fmt.Sprintf("input=%g output=%g", x.Input, x.Output)
	}
	return fmt.Sprintf("%v", v)
}
