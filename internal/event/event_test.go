package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefClassification(t *testing.T) {
	cases := []struct {
		name       string
		ev         Event
		isTag      bool
		isVersion  bool
		isBranch   bool
		branchName string
		tagName    string
	}{
		{
			name:       "branch push",
			ev:         Push("acme/widget", "main", "abc"),
			isBranch:   true,
			branchName: "main",
		},
		{
			name:      "version tag push",
			ev:        TagPush("acme/widget", "v1.2.3", "abc"),
			isTag:     true,
			isVersion: true,
			tagName:   "v1.2.3",
		},
		{
			name:    "non-version tag push",
			ev:      TagPush("acme/widget", "nightly", "abc"),
			isTag:   true,
			tagName: "nightly",
		},
		{
			name:       "pull request",
			ev:         PullRequest("fork/widget", "feature", "def"),
			isBranch:   true,
			branchName: "feature",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.isTag, tc.ev.IsTag())
			assert.Equal(t, tc.isVersion, tc.ev.IsVersionTag())
			assert.Equal(t, tc.isBranch, tc.ev.IsBranch())
			assert.Equal(t, tc.branchName, tc.ev.BranchName())
			assert.Equal(t, tc.tagName, tc.ev.TagName())
		})
	}
}

func TestPullRequestKind(t *testing.T) {
	ev := PullRequest("acme/widget", "fix", "abc")
	assert.Equal(t, KindPullRequest, ev.Kind)
	ev2 := Push("acme/widget", "main", "abc")
	assert.Equal(t, KindPush, ev2.Kind)
}
