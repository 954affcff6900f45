// Package event models the trigger events that start a verification run:
// pushes (branch or tag) and pull requests, with the repository identity and
// commit they point at.
package event

import "strings"

// Kind identifies the trigger event type.
type Kind string

const (
	KindPush        Kind = "push"
	KindPullRequest Kind = "pull_request"
)

const (
	branchRefPrefix = "refs/heads/"
	tagRefPrefix    = "refs/tags/"
)

// Event is a trigger event for a verification run.
type Event struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Repository string `json:"repository" yaml:"repository"` // owner/name identity
	Ref        string `json:"ref" yaml:"ref"`               // fully qualified, e.g. refs/heads/main
	Commit     string `json:"commit" yaml:"commit"`         // SHA at the tip of Ref
}

// IsTag reports whether the event's ref is a tag ref.
func (e Event) IsTag() bool {
	return strings.HasPrefix(e.Ref, tagRefPrefix)
}

// IsVersionTag reports whether the event's ref is a version tag (v-prefixed,
// the convention the publish gate requires).
func (e Event) IsVersionTag() bool {
	name := e.TagName()
	return name != "" && strings.HasPrefix(name, "v")
}

// IsBranch reports whether the event's ref is a branch ref.
func (e Event) IsBranch() bool {
	return strings.HasPrefix(e.Ref, branchRefPrefix)
}

// BranchName returns the short branch name, or "" for non-branch refs.
func (e Event) BranchName() string {
	if !e.IsBranch() {
		return ""
	}
	return strings.TrimPrefix(e.Ref, branchRefPrefix)
}

// TagName returns the short tag name, or "" for non-tag refs.
func (e Event) TagName() string {
	if !e.IsTag() {
		return ""
	}
	return strings.TrimPrefix(e.Ref, tagRefPrefix)
}

// Push constructs a push event for a branch.
func Push(repository, branch, commit string) Event {
	return Event{
		Kind:       KindPush,
		Repository: repository,
		Ref:        branchRefPrefix + branch,
		Commit:     commit,
	}
}

// TagPush constructs a push event for a tag.
func TagPush(repository, tag, commit string) Event {
	return Event{
		Kind:       KindPush,
		Repository: repository,
		Ref:        tagRefPrefix + tag,
		Commit:     commit,
	}
}

// PullRequest constructs a pull request event.
func PullRequest(repository, branch, commit string) Event {
	return Event{
		Kind:       KindPullRequest,
		Repository: repository,
		Ref:        branchRefPrefix + branch,
		Commit:     commit,
	}
}
