package placeholders

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/AnotherFullstackDev/deployctl/internal/placeholders/git"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/stretchr/testify/require"
)

type mockTag struct {
	Name string
	Hash string
}

type mockGitRepoInfoService struct {
	Branch string
	Commit string
	Tag    *mockTag
}

func (m mockGitRepoInfoService) CurrentBranch() (string, error) {
	if m.Branch == "" {
		return "", errors.New("HEAD is not pointing to a branch")
	}
	return m.Branch, nil
}

func (m mockGitRepoInfoService) CurrentCommit() (*object.Commit, error) {
	hash, ok := plumbing.FromHex(m.Commit)
	if !ok {
		return nil, fmt.Errorf("parsing commit hash is not successful: %s", m.Commit)
	}
	return &object.Commit{Hash: hash}, nil
}

func (m mockGitRepoInfoService) CurrentTag() (*plumbing.Reference, error) {
	if m.Tag == nil {
		return nil, nil
	}
	hash, ok := plumbing.FromHex(m.Tag.Hash)
	if !ok {
		return nil, fmt.Errorf("parsing tag hash is not successful: %s", m.Tag.Hash)
	}
	return plumbing.NewHashReference(plumbing.NewTagReferenceName(m.Tag.Name), hash), nil
}

func (m mockGitRepoInfoService) TagsPointingAt(hash plumbing.Hash) ([]*plumbing.Reference, error) {
	tag, err := m.CurrentTag()
	if err != nil || tag == nil || tag.Hash() != hash {
		return nil, err
	}
	return []*plumbing.Reference{tag}, nil
}

const testCommit = "56b189842130315a634ce6d510a4578f151eca32"

func TestPlaceholdersParsing(t *testing.T) {
	s := NewService(mockGitRepoInfoService{})
	r := require.New(t)

	t.Run("should parse simple placeholder", func(t *testing.T) {
		placeholders, err := s.extractPlaceholders("svc-{{git.branch}}")
		r.NoError(err)
		r.Len(placeholders, 1)
		r.Equal("git.branch", placeholders[0].value)
		r.Equal("{{git.branch}}", placeholders[0].raw)
		r.Empty(placeholders[0].modifiers)
	})

	t.Run("should parse placeholders when markup is harsh", func(t *testing.T) {
		placeholders, err := s.extractPlaceholders("Start{{git.branch}}Middle{{ git.commit | upper }}End{{{git.tag}}}")
		r.NoError(err)
		r.Len(placeholders, 3)
		r.Equal("git.commit", placeholders[1].value)
		r.Equal("{{ git.commit | upper }}", placeholders[1].raw)
		r.Equal("git.tag", placeholders[2].value)
		r.Equal("{{git.tag}}", placeholders[2].raw)
	})

	t.Run("should parse modifiers with arguments", func(t *testing.T) {
		placeholders, err := s.extractPlaceholders("{{ git.branch | replace_all(\"/\", \"-\") | trim(\"-\") | truncate(20) }}")
		r.NoError(err)
		r.Len(placeholders, 1)
		r.Len(placeholders[0].modifiers, 3)
		r.Equal("replace_all", placeholders[0].modifiers[0].name)
		r.Equal([]string{"/", "-"}, placeholders[0].modifiers[0].args)
		r.Equal([]string{"-"}, placeholders[0].modifiers[1].args)
		r.Equal([]string{"20"}, placeholders[0].modifiers[2].args)
	})

	t.Run("should reject malformed modifiers", func(t *testing.T) {
		_, err := s.extractPlaceholders("{{ git.branch | upper( }}")
		r.ErrorIs(err, lib.BadUserInputError)
	})
}

func TestPlaceholdersResolution(t *testing.T) {
	r := require.New(t)

	mockService := mockGitRepoInfoService{
		Branch: "feature/Login",
		Commit: testCommit,
		Tag:    &mockTag{Name: "v1.0.0", Hash: testCommit},
	}
	s := NewService(mockService)

	t.Run("should leave values without placeholders untouched", func(t *testing.T) {
		resolved, err := s.ResolvePlaceholders("latest")
		r.NoError(err)
		r.Equal("latest", resolved)
	})

	t.Run("should resolve git placeholders", func(t *testing.T) {
		resolved, err := s.ResolvePlaceholders("{{git.tag}}-{{ git.short_commit }}")
		r.NoError(err)
		r.Equal("v1.0.0-56b1898", resolved)

		resolved, err = s.ResolvePlaceholders("{{git.commit}}")
		r.NoError(err)
		r.Equal(testCommit, resolved)
	})

	t.Run("should turn a branch into a valid tag with modifiers", func(t *testing.T) {
		resolved, err := s.ResolvePlaceholders("{{ git.branch | lower | replace_all(\"/\", \"-\") }}-{{ git.commit | truncate(10) }}")
		r.NoError(err)
		r.Equal("feature-login-56b1898421", resolved)
	})

	t.Run("should resolve repeated placeholders", func(t *testing.T) {
		resolved, err := s.ResolvePlaceholders("{{ git.tag | trim(\"v\") }}/{{ git.tag | replace(\"v\", \"version-\") }}")
		r.NoError(err)
		r.Equal("1.0.0/version-1.0.0", resolved)
	})

	t.Run("should resolve time placeholders", func(t *testing.T) {
		now = func() time.Time { return time.Date(2026, 10, 19, 8, 30, 5, 0, time.UTC) }
		defer func() { now = time.Now }()

		resolved, err := s.ResolvePlaceholders("build-{{ time.compact }}")
		r.NoError(err)
		r.Equal("build-20261019083005", resolved)

		resolved, err = s.ResolvePlaceholders("{{ time.iso8601 | replace_all(\":\", \"\") }}")
		r.NoError(err)
		r.Equal("2026-10-19T083005Z", resolved)
	})

	t.Run("should fail on unknown placeholders and modifiers", func(t *testing.T) {
		_, err := s.ResolvePlaceholders("{{ git.author }}")
		r.ErrorIs(err, lib.BadUserInputError)

		_, err = s.ResolvePlaceholders("{{ git.branch | reverse }}")
		r.ErrorIs(err, lib.BadUserInputError)

		_, err = s.ResolvePlaceholders("{{ git.branch | truncate(x) }}")
		r.ErrorIs(err, lib.BadUserInputError)
	})

	t.Run("should fail when the commit has no tag", func(t *testing.T) {
		untagged := NewService(mockGitRepoInfoService{Commit: testCommit})
		_, err := untagged.ResolvePlaceholders("{{ git.tag }}")
		r.ErrorIs(err, lib.BadUserInputError)
	})

	t.Run("should only fail git placeholders outside of a repository", func(t *testing.T) {
		outside := NewService(git.Unavailable(errors.New("repository does not exist")))

		resolved, err := outside.ResolvePlaceholders("latest")
		r.NoError(err)
		r.Equal("latest", resolved)

		_, err = outside.ResolvePlaceholders("{{ git.short_commit }}")
		r.ErrorContains(err, "repository does not exist")
	})
}
