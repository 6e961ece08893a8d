// Package progress derives display metrics from the challenge catalog.
// Every function here is pure: inputs are never mutated and nothing fails.
package progress

import (
	"alcyxob/wellbeing-app/internal/domain"
	"math"
	"strings"
)

// WeekProgress is the completion state of a single week.
type WeekProgress struct {
	CompletedCount int  `json:"completedCount"`
	TotalCount     int  `json:"totalCount"`
	Percentage     int  `json:"percentage"`
	IsWeekComplete bool `json:"isWeekComplete"`
	RemainingCount int  `json:"remainingCount"`
}

// Source tells where overall counts came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceServer Source = "server"
)

// OverallProgress is the completion state across the whole catalog.
type OverallProgress struct {
	CompletedCount int    `json:"completedCount"`
	TotalCount     int    `json:"totalCount"`
	Percentage     int    `json:"percentage"`
	Source         Source `json:"source"`
}

// Percentage returns round(100 * completed / total), or 0 when total is 0.
// The result is clamped to [0, 100].
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// ComputeWeekProgress counts completed items of one week. A nil slice is
// treated as an empty week.
func ComputeWeekProgress(items []domain.ChallengeItem) WeekProgress {
	completed := 0
	for _, item := range items {
		if item.Completed {
			completed++
		}
	}
	total := len(items)
	return WeekProgress{
		CompletedCount: completed,
		TotalCount:     total,
		Percentage:     Percentage(completed, total),
		IsWeekComplete: total > 0 && completed == total,
		RemainingCount: total - completed,
	}
}

// ComputeOverallProgress applies the week rule to every item of every
// group. When the server supplied an aggregate it is used as the source of
// the counts; the percentage is always derived with Percentage so the two
// numbers cannot drift apart.
func ComputeOverallProgress(groups []domain.WeekWithItems, override *domain.ProgressSummary) OverallProgress {
	if override != nil {
		return OverallProgress{
			CompletedCount: override.CompletedCount,
			TotalCount:     override.TotalCount,
			Percentage:     Percentage(override.CompletedCount, override.TotalCount),
			Source:         SourceServer,
		}
	}

	completed, total := 0, 0
	for _, g := range groups {
		wp := ComputeWeekProgress(g.Items)
		completed += wp.CompletedCount
		total += wp.TotalCount
	}
	return OverallProgress{
		CompletedCount: completed,
		TotalCount:     total,
		Percentage:     Percentage(completed, total),
		Source:         SourceLocal,
	}
}

// StatusFilter narrows items by their completion state.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusCompleted  StatusFilter = "completed"
	StatusIncomplete StatusFilter = "incomplete"
)

// ParseStatusFilter maps a query value to a filter. Unknown values mean all.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusIncomplete:
		return StatusIncomplete
	default:
		return StatusAll
	}
}

func (f StatusFilter) matches(item domain.ChallengeItem) bool {
	switch f {
	case StatusCompleted:
		return item.Completed
	case StatusIncomplete:
		return !item.Completed
	default:
		return true
	}
}

// FilterByQueryAndStatus returns the weeks and items matching the search
// text (case-insensitive, against item title, item description and the
// week theme) and the status filter.
//
// With empty search text every week is kept, even one left without items,
// so an empty week can still receive its first challenge. With a search,
// weeks without a single matching item are dropped.
func FilterByQueryAndStatus(groups []domain.WeekWithItems, searchText string, status StatusFilter) []domain.WeekWithItems {
	query := strings.ToLower(strings.TrimSpace(searchText))
	out := make([]domain.WeekWithItems, 0, len(groups))

	for _, g := range groups {
		themeMatches := query != "" && strings.Contains(strings.ToLower(g.Theme), query)

		items := make([]domain.ChallengeItem, 0, len(g.Items))
		for _, item := range g.Items {
			if !status.matches(item) {
				continue
			}
			if query != "" && !themeMatches &&
				!strings.Contains(strings.ToLower(item.Title), query) &&
				!strings.Contains(strings.ToLower(item.Description), query) {
				continue
			}
			items = append(items, item)
		}

		if query != "" && len(items) == 0 {
			continue
		}
		if len(items) == 0 && g.Items == nil {
			items = nil
		}
		week := g.Clone()
		week.Items = items
		out = append(out, week)
	}
	return out
}
