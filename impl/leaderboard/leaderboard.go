// Package leaderboard renders ranked, paged views of the ledger.
//
// Page state is not kept server side: the current page travels in the
// rendered footer and is parsed back when a button is pressed.
package leaderboard

import (
	"fmt"
	"invitetrack/entity"
	"regexp"
	"strconv"
	"strings"
)

const (
	PageSize = 10
	Title    = "REWARD NETWORK | INVITE LEADERBOARD"
	NoData   = "No leaderboard data available."
)

// Action is a button custom id that moves the leaderboard.
type Action string

const (
	ActionPrev    Action = "leaderboard_prev"
	ActionNext    Action = "leaderboard_next"
	ActionRefresh Action = "leaderboard_refresh"
)

// ParseAction maps a button custom id to an Action.
func ParseAction(customId string) (Action, bool) {
	switch a := Action(customId); a {
	case ActionPrev, ActionNext, ActionRefresh:
		return a, true
	}
	return "", false
}

var markers = []string{"🥇", "🥈", "🥉"}

var footerPattern = regexp.MustCompile(`Page: (\d+) / \d+`)

// NameFunc resolves the label shown for an entry.
type NameFunc func(entry *entity.LedgerEntry) string

type Row struct {
	Rank          int
	Marker        string
	Name          string
	Invites       int
	Bonus         float64
	TotalEarnings float64
}

type View struct {
	Title      string
	Body       string
	Footer     string
	Page       int
	TotalPages int
	Rows       []Row
}

// TotalPages is ceil(count/PageSize), never less than one.
func TotalPages(count int) int {
	if count <= 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

// Marker decorates an absolute rank: medals for the podium, an ordinal otherwise.
func Marker(rank int) string {
	if rank >= 1 && rank <= len(markers) {
		return markers[rank-1]
	}
	return strconv.Itoa(rank) + "."
}

func Footer(page, totalPages int) string {
	return fmt.Sprintf("Page: %d / %d", page, totalPages)
}

// ParseFooter recovers the page number from a rendered footer.
func ParseFooter(text string) (int, bool) {
	m := footerPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	page, err := strconv.Atoi(m[1])
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// Clamp keeps page within [1, totalPages].
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Transition returns the page an action leads to. Prev and next wrap around,
// refresh always goes back to the first page.
func Transition(action Action, current, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	current = Clamp(current, totalPages)
	switch action {
	case ActionPrev:
		if current > 1 {
			return current - 1
		}
		return totalPages
	case ActionNext:
		if current < totalPages {
			return current + 1
		}
		return 1
	default:
		return 1
	}
}

// Render builds one page of entries, which must already be ordered by invites descending.
// name may be nil, in which case the stored display name is used.
func Render(entries []*entity.LedgerEntry, page int, name NameFunc) View {
	total := TotalPages(len(entries))
	page = Clamp(page, total)
	view := View{
		Title:      Title,
		Footer:     Footer(page, total),
		Page:       page,
		TotalPages: total,
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(entries) {
		end = len(entries)
	}

	var sb strings.Builder
	for i := start; i < end; i++ {
		e := entries[i]
		label := e.DisplayName()
		if name != nil {
			label = name(e)
		}
		row := Row{
			Rank:          i + 1,
			Marker:        Marker(i + 1),
			Name:          label,
			Invites:       e.Invites,
			Bonus:         e.Bonus,
			TotalEarnings: e.Earnings(),
		}
		view.Rows = append(view.Rows, row)
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("%s %s\nInvites: %d\nBonus: $%.2f\n💰 Total Earnings: $%.2f",
			row.Marker, row.Name, row.Invites, row.Bonus, row.TotalEarnings))
	}

	view.Body = sb.String()
	if view.Body == "" {
		view.Body = NoData
	}
	return view
}
