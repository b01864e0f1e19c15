package text

import (
	"regexp"
	"strconv"
)

var (
	issueLinkRe = regexp.MustCompile(`https://github\.com/([^/\s]+)/([^/\s]+)/issues/(\d+)`)
	mentionRe   = regexp.MustCompile(`@([a-zA-Z0-9_-]+)`)
)

// IssueRef identifies an issue referenced by URL inside free text.
type IssueRef struct {
	Org    string
	Repo   string
	Number int
}

// FindIssueLink returns the first cross-repository issue link in body.
func FindIssueLink(body string) (IssueRef, bool) {
	m := issueLinkRe.FindStringSubmatch(body)
	if m == nil {
		return IssueRef{}, false
	}

	number, err := strconv.Atoi(m[3])
	if err != nil {
		return IssueRef{}, false
	}

	return IssueRef{Org: m[1], Repo: m[2], Number: number}, true
}

// FirstMention returns the leftmost @handle mention in body, without the
// leading '@'.
func FirstMention(body string) (string, bool) {
	m := mentionRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}
