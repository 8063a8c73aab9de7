package brief

import (
	"sort"
	"strings"
)

// Subject prefixes stripped before computing a thread's merge key
var replyPrefixes = []string{"re:", "fwd:", "fw:"}

// DedupThreads collapses threads that surfaced in more than one linked
// account into one canonical thread each. Two threads are the same
// logical thread when they share a normalized subject and an identical
// participant set. Output order is first-seen order; the canonical id is
// the id of whichever side arrived first and is never renegotiated.
func DedupThreads(threads []EmailThread) []EmailThread {
	out := make([]EmailThread, 0, len(threads))
	index := make(map[string]int, len(threads))

	for _, t := range threads {
		key := ThreadKey(t)
		if i, ok := index[key]; ok {
			out[i] = mergeThreads(out[i], t)
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}

	return out
}

// ThreadKey builds the cross-account equality key for a thread
func ThreadKey(t EmailThread) string {
	participants := make([]string, 0, len(t.Participants))
	for _, p := range t.Participants {
		participants = append(participants, strings.ToLower(strings.TrimSpace(p)))
	}
	sort.Strings(participants)
	return NormalizeSubject(t.Subject) + "|" + strings.Join(participants, ";")
}

// NormalizeSubject strips leading reply/forward tokens, lower-cases and
// trims the subject
func NormalizeSubject(subject string) string {
	subject = strings.ToLower(strings.TrimSpace(subject))
	for {
		stripped := false
		for _, prefix := range replyPrefixes {
			if strings.HasPrefix(subject, prefix) {
				subject = strings.TrimSpace(strings.TrimPrefix(subject, prefix))
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	return subject
}

// mergeThreads folds a duplicate thread into the canonical one.
// Signals combine conservatively: the stronger urgency and tier win,
// action-required is an OR, participants are unioned, and the most
// recent message date (with its snippet) is retained.
func mergeThreads(canonical, dup EmailThread) EmailThread {
	if dup.UrgencyScore > canonical.UrgencyScore {
		canonical.UrgencyScore = dup.UrgencyScore
	}
	if dup.Importance.IsValid() && dup.Importance.Weight() > canonical.Importance.Weight() {
		canonical.Importance = dup.Importance
	}
	canonical.ActionRequired = canonical.ActionRequired || dup.ActionRequired
	canonical.Unread = canonical.Unread || dup.Unread
	canonical.Important = canonical.Important || dup.Important

	canonical.Participants = unionAddresses(canonical.Participants, dup.Participants)

	if dup.LastMessageDate.After(canonical.LastMessageDate) {
		canonical.LastMessageDate = dup.LastMessageDate
		if dup.Snippet != "" {
			canonical.Snippet = dup.Snippet
		}
	}
	if canonical.Snippet == "" {
		canonical.Snippet = dup.Snippet
	}

	return canonical
}

// unionAddresses merges two address lists, case-insensitively, keeping
// the order of first appearance
func unionAddresses(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, addr := range list {
			key := strings.ToLower(strings.TrimSpace(addr))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, addr)
		}
	}
	return out
}

// DedupEvents collapses calendar events that appear in more than one
// linked account. Events with identical start, end and normalized title
// are the same real-world event; the first-seen copy wins.
func DedupEvents(events []CalendarEvent) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	seen := make(map[string]bool, len(events))

	for _, e := range events {
		key := EventKey(e)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}

	return out
}

// EventKey builds the cross-account equality key for a calendar event
func EventKey(e CalendarEvent) string {
	return e.Start.UTC().Format("2006-01-02T15:04:05Z07:00") + "|" +
		e.End.UTC().Format("2006-01-02T15:04:05Z07:00") + "|" +
		strings.ToLower(strings.TrimSpace(e.Title))
}
