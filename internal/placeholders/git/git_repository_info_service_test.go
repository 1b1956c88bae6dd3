package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/require"
)

func TestRepositoryInfoService(t *testing.T) {
	r := require.New(t)

	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	r.NoError(err)

	wt, err := repo.Worktree()
	r.NoError(err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Unix(1700000000, 0)},
	})
	r.NoError(err)

	_, err = repo.CreateTag("v1.2.3", hash, nil)
	r.NoError(err)

	t.Run("must open the repository from a nested directory", func(t *testing.T) {
		nested := filepath.Join(root, "services", "api")
		r.NoError(os.MkdirAll(nested, 0o755))

		svc, err := NewRepositoryInfoService(nested)
		r.NoError(err)

		commit, err := svc.CurrentCommit()
		r.NoError(err)
		r.Equal(hash, commit.Hash)

		tag, err := svc.CurrentTag()
		r.NoError(err)
		r.NotNil(tag)
		r.Equal("v1.2.3", tag.Name().Short())
	})

	t.Run("must fail outside of a repository", func(t *testing.T) {
		_, err := NewRepositoryInfoService(t.TempDir())
		r.Error(err)
	})
}

func TestUnavailable(t *testing.T) {
	r := require.New(t)
	reason := errors.New("repository does not exist")

	svc := Unavailable(reason)
	_, err := svc.CurrentBranch()
	r.ErrorIs(err, reason)
	_, err = svc.CurrentCommit()
	r.ErrorIs(err, reason)
	_, err = svc.CurrentTag()
	r.ErrorIs(err, reason)
}
