package exiftool

import (
	"regexp"
	"strings"
)

// Field is one parsed output line of the form "[Group] Tag : Value".
type Field struct {
	Group string `json:"group"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// HistoryEvent is one brace-delimited record of the XMP history line.
// Timestamps stay as raw strings; the analysis layer decides how to parse
// and bucket them.
type HistoryEvent struct {
	Action        string `json:"action,omitempty"`
	SoftwareAgent string `json:"software_agent,omitempty"`
	When          string `json:"when,omitempty"`
	Changed       string `json:"changed,omitempty"`
	Parameters    string `json:"parameters,omitempty"`
}

// Metadata is the parsed view of one tool invocation's output.
type Metadata struct {
	Fields  []Field        `json:"fields"`
	History []HistoryEvent `json:"history,omitempty"`
	Raw     string         `json:"-"`
}

var (
	fieldLineRe   = regexp.MustCompile(`^\[(.+?)\]\s+(\S+)\s*:\s?(.*)$`)
	historyItemRe = regexp.MustCompile(`\{([^{}]*)\}`)
)

// Parse parses line-oriented tool output. Sentinel output parses to an
// empty Metadata, which every consumer treats as "no metadata".
func Parse(raw string) *Metadata {
	m := &Metadata{Raw: raw}
	if IsSentinel(raw) {
		return m
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		sub := fieldLineRe.FindStringSubmatch(line)
		if sub == nil {
			continue
		}
		field := Field{
			Group: strings.TrimSpace(sub[1]),
			Tag:   strings.TrimSpace(sub[2]),
			Value: strings.TrimSpace(sub[3]),
		}
		m.Fields = append(m.Fields, field)

		if field.Tag == "History" {
			m.History = append(m.History, parseHistory(field.Value)...)
		}
	}
	return m
}

// parseHistory splits a History value into its brace-delimited event
// records and their comma-separated key=value pairs.
func parseHistory(value string) []HistoryEvent {
	var events []HistoryEvent
	for _, item := range historyItemRe.FindAllStringSubmatch(value, -1) {
		var ev HistoryEvent
		for _, pair := range strings.Split(item[1], ",") {
			key, val, found := strings.Cut(pair, "=")
			if !found {
				continue
			}
			key = strings.TrimSpace(key)
			val = strings.TrimSpace(val)
			switch key {
			case "Action":
				ev.Action = val
			case "SoftwareAgent":
				ev.SoftwareAgent = val
			case "When":
				ev.When = val
			case "Changed":
				ev.Changed = val
			case "Parameters":
				ev.Parameters = val
			}
		}
		events = append(events, ev)
	}
	return events
}

// Get returns the first value for an exact group/tag pair, or "".
func (m *Metadata) Get(group, tag string) string {
	for _, f := range m.Fields {
		if f.Group == group && f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// Find returns the first value for a tag in any group, or "".
func (m *Metadata) Find(tag string) string {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f.Value
		}
	}
	return ""
}

// FindAll returns every value for a tag across all groups, in output order.
func (m *Metadata) FindAll(tag string) []string {
	var values []string
	for _, f := range m.Fields {
		if f.Tag == tag {
			values = append(values, f.Value)
		}
	}
	return values
}

// Empty reports whether no fields were parsed.
func (m *Metadata) Empty() bool {
	return len(m.Fields) == 0
}
