package pipeline

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitOps handles git operations for the catalog repo.
type GitOps struct {
	repo     *git.Repository
	worktree *git.Worktree
	token    string
	branch   string
}

// OpenRepo opens the git repository containing path. The catalog may live
// in a subdirectory of the repository.
func OpenRepo(path, token string) (*GitOps, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	return &GitOps{repo: repo, worktree: wt, token: token}, nil
}

// CreateBranch creates a branch at HEAD and checks it out, keeping the
// uncommitted catalog changes in the worktree.
func (g *GitOps) CreateBranch(name string) error {
	headRef, err := g.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(name)
	ref := plumbing.NewHashReference(branchRef, headRef.Hash())

	if err := g.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("creating branch ref: %w", err)
	}

	if err := g.worktree.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Keep:   true,
	}); err != nil {
		return err
	}
	g.branch = name
	return nil
}

// Branch returns the branch checked out by CreateBranch.
func (g *GitOps) Branch() string { return g.branch }

// AddAll stages all changes.
func (g *GitOps) AddAll() error {
	return g.worktree.AddWithOptions(&git.AddOptions{All: true})
}

// HasChanges reports whether the worktree differs from HEAD.
func (g *GitOps) HasChanges() (bool, error) {
	status, err := g.worktree.Status()
	if err != nil {
		return false, err
	}
	return !status.IsClean(), nil
}

// Commit creates a commit with the given message.
func (g *GitOps) Commit(message string) error {
	_, err := g.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "modelsync",
			Email: "modelsync@everstack.dev",
			When:  time.Now(),
		},
	})
	return err
}

// Push pushes the branch created by CreateBranch to origin.
func (g *GitOps) Push() error {
	if g.branch == "" {
		return fmt.Errorf("no branch to push")
	}
	spec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", g.branch, g.branch)
	return g.repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(spec)},
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: g.token,
		},
	})
}
