package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/everstacklabs/modelsync/internal/diff"
)

// openPR commits the store changes of a finished run to a new branch and
// opens a pull request for them.
func (p *Pipeline) openPR(ctx context.Context, report *Report) error {
	gh := p.cfg.GitHub
	if gh.Token == "" || gh.Owner == "" || gh.Repo == "" {
		slog.Warn("pull request skipped: github token, owner and repo are required")
		return nil
	}

	var sets []diff.ChangeSet
	for _, r := range report.Results {
		if r.ChangeSet != nil && (r.ChangeSet.TotalChanged() > 0 || len(r.ChangeSet.Deleted) > 0) {
			sets = append(sets, *r.ChangeSet)
		}
	}
	if len(sets) == 0 {
		slog.Info("no store changes, skipping pull request")
		return nil
	}

	draft, reasons := assessRisk(report.Results)
	branchName := fmt.Sprintf("modelsync/%s", time.Now().UTC().Format("20060102-150405"))
	title := prTitle(sets)

	// Git operations
	gitOps, err := OpenRepo(p.cfg.CatalogPath, gh.Token)
	if err != nil {
		return err
	}

	dirty, err := gitOps.HasChanges()
	if err != nil {
		return fmt.Errorf("reading worktree status: %w", err)
	}
	if !dirty {
		slog.Info("worktree is clean, skipping pull request")
		return nil
	}

	if err := gitOps.CreateBranch(branchName); err != nil {
		return fmt.Errorf("creating branch: %w", err)
	}

	if err := gitOps.AddAll(); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}

	if err := gitOps.Commit(title); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	if err := gitOps.Push(); err != nil {
		return fmt.Errorf("pushing: %w", err)
	}

	// Create PR
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: gh.Token})
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	body := prBody(sets, reasons)
	head := gitOps.Branch()
	pr, _, err := client.PullRequests.Create(ctx, gh.Owner, gh.Repo, &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &head,
		Base:  &gh.BaseBranch,
		Draft: &draft,
	})
	if err != nil {
		return fmt.Errorf("creating PR: %w", err)
	}

	report.PRNumber = pr.GetNumber()
	report.PRURL = pr.GetHTMLURL()
	report.PRDraft = draft

	slog.Info("PR created",
		"number", pr.GetNumber(),
		"draft", draft,
		"url", pr.GetHTMLURL())

	return nil
}

func prTitle(sets []diff.ChangeSet) string {
	names := make([]string, 0, len(sets))
	for _, cs := range sets {
		names = append(names, cs.Provider)
	}
	return fmt.Sprintf("chore(catalog): sync %s models", strings.Join(names, ", "))
}

func prBody(sets []diff.ChangeSet, draftReasons []string) string {
	var sb strings.Builder
	if len(draftReasons) > 0 {
		sb.WriteString("> [!WARNING]\n> Opened as draft:\n")
		for _, r := range draftReasons {
			fmt.Fprintf(&sb, "> - %s\n", r)
		}
		sb.WriteString("\n")
	}
	for i, cs := range sets {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(diff.RenderPRBody(cs))
	}
	return sb.String()
}
