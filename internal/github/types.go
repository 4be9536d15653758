package github

import (
	"fmt"
	"time"

	"github.com/cli/go-gh/v2/pkg/repository"
)

// RepoRef identifies a repository by owner and name.
type RepoRef struct {
	Owner string
	Name  string
}

// ParseRepoRef parses "owner/name" or "host/owner/name".
func ParseRepoRef(s string) (RepoRef, error) {
	repo, err := repository.Parse(s)
	if err != nil {
		return RepoRef{}, fmt.Errorf("invalid repository %q: %w", s, err)
	}
	return RepoRef{Owner: repo.Owner, Name: repo.Name}, nil
}

// String returns the "owner/name" form.
func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

type User struct {
	ID    int64
	Login string
}

type Issue struct {
	ID        int64
	Number    int
	Title     string
	User      User
	CreatedAt time.Time
	Body      *string // nil when the issue has no description
	// IsPullRequest is true when the issues endpoint returned a pull request.
	IsPullRequest bool
}

type PullRequest struct {
	ID        int64
	Number    int
	Title     string
	State     string // "open" or "closed", as reported by the REST API
	IsDraft   bool
	User      User
	CreatedAt time.Time
	HeadRepo  RepoRef
	BaseRepo  RepoRef
}

// IsCrossRepository reports whether the head branch lives in a fork.
func (pr PullRequest) IsCrossRepository() bool {
	return pr.HeadRepo != pr.BaseRepo
}

type Repository struct {
	OwnerLogin        string
	Name              string
	NameWithOwner     string
	DefaultBranchName string
}

// Ref returns the owner/name pair of the repository.
func (r Repository) Ref() RepoRef {
	return RepoRef{Owner: r.OwnerLogin, Name: r.Name}
}

type PullRequestQuery struct {
	Author string   // "" = all authors
	Repo   *RepoRef // nil = repository of the working directory
}

type IssueQuery struct {
	Repo *RepoRef // nil = repository of the working directory
}

type UpdateMode string

const (
	UpdateModeMerge  UpdateMode = "merge"
	UpdateModeRebase UpdateMode = "rebase"
)

func (m UpdateMode) String() string {
	return string(m)
}

func (m UpdateMode) IsValid() bool {
	switch m {
	case UpdateModeMerge, UpdateModeRebase:
		return true
	}
	return false
}

type UpdateBranchRequest struct {
	Mode   UpdateMode // Defaults to UpdateModeMerge if empty
	Number int
	Repo   RepoRef
}
