package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IssuePriority grades a detected issue.
type IssuePriority int

const (
	IssueError IssuePriority = iota
	IssueWarning
	IssueInformation
)

func (p IssuePriority) String() string {
	switch p {
	case IssueError:
		return "error"
	case IssueWarning:
		return "warning"
	case IssueInformation:
		return "information"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// DetectedIssue is a structured validation finding collected during a write.
// Error-priority issues block the write; lower priorities are persisted as a
// data-quality extension on the record.
type DetectedIssue struct {
	Priority IssuePriority
	TypeKey  uuid.UUID
	Text     string
}

// DetectedIssueError aborts a write with the complete list of findings so the
// caller can diagnose all of them at once.
type DetectedIssueError struct {
	Issues []DetectedIssue
}

func (e DetectedIssueError) Error() string {
	texts := make([]string, len(e.Issues))
	for nth, i := range e.Issues {
		texts[nth] = fmt.Sprintf("[%s] %s", i.Priority, i.Text)
	}
	return "detected issues: " + strings.Join(texts, "; ")
}

// HasErrors reports whether any issue is Error priority.
func HasErrors(issues []DetectedIssue) bool {
	for _, i := range issues {
		if i.Priority == IssueError {
			return true
		}
	}
	return false
}

// Warnings filters the non-blocking findings.
func Warnings(issues []DetectedIssue) []DetectedIssue {
	out := []DetectedIssue{}
	for _, i := range issues {
		if i.Priority != IssueError {
			out = append(out, i)
		}
	}
	return out
}
