// Package placeholders expands {{ name | modifier(args) }} expressions in
// configuration values, e.g. IMAGE_TAG="{{ git.branch | replace_all(/, -) }}-{{ git.short_commit }}".
package placeholders

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
	"github.com/AnotherFullstackDev/deployctl/internal/placeholders/git"
)

const shortCommitLength = 7

var (
	placeholderRegExp = regexp.MustCompile(`{{\s*([^{}]+)\s*}}`)
	modifierRegExp    = regexp.MustCompile(`^(\w+)(\(([^()]*)\))?$`)
)

type resolverFunc func() (string, error)

type modifierFunc func(string, []string) (string, error)

type modifier struct {
	name string
	args []string
}

type placeholder struct {
	raw       string
	value     string
	modifiers []modifier
}

type Service struct {
	gitRepoInfo git.RepositoryInfoService
	resolvers   map[string]resolverFunc
	modifiers   map[string]modifierFunc
}

func NewService(gitRepoInfo git.RepositoryInfoService) *Service {
	s := &Service{gitRepoInfo: gitRepoInfo}

	s.resolvers = map[string]resolverFunc{
		"git.branch":       s.resolveGitBranch,
		"git.commit":       s.resolveGitCommit,
		"git.short_commit": s.resolveGitShortCommit,
		"git.tag":          s.resolveGitTag,
		"time.timestamp":   resolveUnixTimestamp,
		"time.iso8601":     resolveISO8601Timestamp,
		"time.compact":     resolveCompactTimestamp,
	}
	s.modifiers = map[string]modifierFunc{
		"upper":       upperModifier,
		"lower":       lowerModifier,
		"trim":        trimModifier,
		"replace":     replaceModifier,
		"replace_all": replaceAllModifier,
		"truncate":    truncateModifier,
	}

	return s
}

func (s *Service) extractPlaceholders(value string) ([]placeholder, error) {
	matches := placeholderRegExp.FindAllStringSubmatch(value, -1)
	placeholders := make([]placeholder, 0, len(matches))

	for _, match := range matches {
		raw, inner := match[0], match[1]

		parts := strings.Split(inner, "|")
		p := placeholder{
			raw:       raw,
			value:     strings.TrimSpace(parts[0]),
			modifiers: make([]modifier, 0, len(parts)-1),
		}

		for _, part := range parts[1:] {
			rawModifier := strings.TrimSpace(part)
			if rawModifier == "" {
				continue
			}

			modifierMatch := modifierRegExp.FindStringSubmatch(rawModifier)
			if modifierMatch == nil {
				return nil, fmt.Errorf("%w - invalid modifier '%s' in placeholder %s", lib.BadUserInputError, rawModifier, raw)
			}

			m := modifier{name: modifierMatch[1], args: []string{}}
			if rawArgs := modifierMatch[3]; rawArgs != "" {
				for _, arg := range strings.Split(rawArgs, ",") {
					arg = strings.TrimSpace(arg)
					if unquoted, err := strconv.Unquote(arg); err == nil {
						arg = unquoted
					}
					m.args = append(m.args, arg)
				}
			}

			p.modifiers = append(p.modifiers, m)
		}

		placeholders = append(placeholders, p)
	}

	return placeholders, nil
}

func (s *Service) ResolvePlaceholders(value string) (string, error) {
	placeholders, err := s.extractPlaceholders(value)
	if err != nil {
		return "", fmt.Errorf("extracting placeholders: %w", err)
	}

	for _, p := range placeholders {
		resolver, ok := s.resolvers[p.value]
		if !ok {
			return "", fmt.Errorf("%w - no resolver found for placeholder: %s", lib.BadUserInputError, p.raw)
		}

		resolved, err := resolver()
		if err != nil {
			return "", fmt.Errorf("resolving placeholder %s: %w", p.raw, err)
		}

		for _, m := range p.modifiers {
			apply, ok := s.modifiers[m.name]
			if !ok {
				return "", fmt.Errorf("%w - no resolver found for modifier: %s in placeholder: %s", lib.BadUserInputError, m.name, p.raw)
			}

			resolved, err = apply(resolved, m.args)
			if err != nil {
				return "", fmt.Errorf("applying modifier %s to placeholder %s: %w", m.name, p.raw, err)
			}
		}

		value = strings.Replace(value, p.raw, resolved, 1)
	}

	return value, nil
}

func (s *Service) resolveGitBranch() (string, error) {
	branch, err := s.gitRepoInfo.CurrentBranch()
	if err != nil {
		return "", fmt.Errorf("getting current git branch: %w", err)
	}
	return branch, nil
}

func (s *Service) resolveGitTag() (string, error) {
	tag, err := s.gitRepoInfo.CurrentTag()
	if err != nil {
		return "", fmt.Errorf("getting current git tag: %w", err)
	}

	if tag == nil {
		return "", fmt.Errorf("%w - no git tag found for current commit", lib.BadUserInputError)
	}

	return tag.Name().Short(), nil
}

func (s *Service) resolveGitCommit() (string, error) {
	commit, err := s.gitRepoInfo.CurrentCommit()
	if err != nil {
		return "", fmt.Errorf("getting current git commit: %w", err)
	}
	return commit.Hash.String(), nil
}

func (s *Service) resolveGitShortCommit() (string, error) {
	commit, err := s.resolveGitCommit()
	if err != nil {
		return "", err
	}
	if len(commit) > shortCommitLength {
		commit = commit[:shortCommitLength]
	}
	return commit, nil
}
