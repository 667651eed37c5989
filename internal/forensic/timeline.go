package forensic

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/veridoc/pdfscout/internal/exiftool"
)

// Event sources.
const (
	SourceFilesystem = "filesystem"
	SourceMetadata   = "metadata"
	SourceEmbedded   = "embedded"
	SourceHistory    = "history"
	SourceDerived    = "derived"
)

// TimelineEvent is one dated fact about a document.
type TimelineEvent struct {
	Time        time.Time `json:"time"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
}

// Timeline holds two disjoint event partitions. An event lands in exactly
// one of them, decided strictly by whether its source timestamp carried
// timezone information; nothing is ever coerced across with an assumed
// default offset. Cross-partition comparison is undefined.
type Timeline struct {
	Aware []TimelineEvent `json:"aware,omitempty"`
	Naive []TimelineEvent `json:"naive,omitempty"`
}

// TimelineInput bundles the timestamp sources merged into a timeline.
type TimelineInput struct {
	FileCreated  *time.Time // filesystem times are always aware
	FileModified *time.Time
	Meta         *exiftool.Metadata
	Surrogate    string
	ToolChange   *ToolChange

	// Now supplies the clock for the last-resort synthetic event anchor.
	// Nil means time.Now.
	Now func() time.Time
}

// dateTags are metadata tags treated as timestamp-bearing.
func isDateTag(tag string) bool {
	return strings.Contains(tag, "Date") || tag == "When"
}

// BuildTimeline merges timestamps from every source into the two ordered
// partitions. The result is regenerated whole on every call; partitions are
// never incrementally mutated.
func BuildTimeline(in TimelineInput) Timeline {
	var tl Timeline

	add := func(t time.Time, aware bool, source, desc string) {
		ev := TimelineEvent{Time: t, Source: source, Description: desc}
		if aware {
			tl.Aware = append(tl.Aware, ev)
		} else {
			tl.Naive = append(tl.Naive, ev)
		}
	}

	if in.FileCreated != nil {
		add(*in.FileCreated, true, SourceFilesystem, "file created")
	}
	if in.FileModified != nil {
		add(*in.FileModified, true, SourceFilesystem, "file modified")
	}

	if in.Meta != nil {
		for _, f := range in.Meta.Fields {
			if !isDateTag(f.Tag) || f.Tag == "History" {
				continue
			}
			t, aware, err := ParseMetadataDate(f.Value)
			if err != nil {
				continue
			}
			add(t, aware, SourceMetadata, fmt.Sprintf("[%s] %s", f.Group, f.Tag))
		}
		for _, ev := range in.Meta.History {
			if ev.When == "" {
				continue
			}
			t, aware, err := ParseMetadataDate(ev.When)
			if err != nil {
				continue
			}
			add(t, aware, SourceHistory, describeHistory(ev))
		}
	}

	addEmbeddedDates(&tl, in.Surrogate, add)
	addToolChangeEvent(&tl, in, add)

	sortEvents(tl.Aware)
	sortEvents(tl.Naive)
	return tl
}

// addEmbeddedDates scans the surrogate for raw PDF date tokens. The compact
// numeric form is always naive; the extended form may carry an offset or Z.
func addEmbeddedDates(tl *Timeline, surrogate string, add func(time.Time, bool, string, string)) {
	seen := make(map[string]bool)
	for _, token := range pdfDateRe.FindAllString(surrogate, -1) {
		if seen[token] {
			continue
		}
		seen[token] = true
		t, aware, err := ParsePDFDate(token)
		if err != nil {
			continue
		}
		add(t, aware, SourceEmbedded, "embedded date token "+token)
	}
}

// addToolChangeEvent appends the synthetic transition event. The bucket
// follows the modify time's awareness, falling back to the latest available
// naive timestamp, then to "now" when no events exist at all.
func addToolChangeEvent(tl *Timeline, in TimelineInput, add func(time.Time, bool, string, string)) {
	if in.ToolChange == nil || !in.ToolChange.Changed {
		return
	}
	desc := fmt.Sprintf("tool transition %q -> %q (%s)",
		in.ToolChange.CreateTool, in.ToolChange.ModifyTool, in.ToolChange.Reason)

	if in.ToolChange.ModifyTime != nil {
		add(*in.ToolChange.ModifyTime, in.ToolChange.ModifyTimeAware, SourceDerived, desc)
		return
	}
	if t, ok := latestEvent(tl.Naive); ok {
		add(t, false, SourceDerived, desc)
		return
	}
	if t, ok := latestEvent(tl.Aware); ok {
		add(t, true, SourceDerived, desc)
		return
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	add(now(), true, SourceDerived, desc)
}

func latestEvent(events []TimelineEvent) (time.Time, bool) {
	if len(events) == 0 {
		return time.Time{}, false
	}
	latest := events[0].Time
	for _, ev := range events[1:] {
		if ev.Time.After(latest) {
			latest = ev.Time
		}
	}
	return latest, true
}

func sortEvents(events []TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time.Before(events[j].Time)
	})
}

func describeHistory(ev exiftool.HistoryEvent) string {
	parts := []string{"history"}
	if ev.Action != "" {
		parts = append(parts, "action="+ev.Action)
	}
	if ev.SoftwareAgent != "" {
		parts = append(parts, "agent="+ev.SoftwareAgent)
	}
	if ev.Changed != "" {
		parts = append(parts, "changed="+ev.Changed)
	}
	return strings.Join(parts, " ")
}

// Deltas returns the inter-event gaps between consecutive events within one
// partition, for display and anomaly spotting. The gaps are not themselves
// evidence; cross-partition deltas are never computed.
func Deltas(events []TimelineEvent) []time.Duration {
	if len(events) < 2 {
		return nil
	}
	deltas := make([]time.Duration, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		deltas = append(deltas, events[i].Time.Sub(events[i-1].Time))
	}
	return deltas
}
