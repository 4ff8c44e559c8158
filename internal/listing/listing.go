// Package listing harvests raw candidate profiles from a paginated search
// listing or from a local fixture file.
package listing

import (
	"fmt"
	"regexp"
	"strings"
)

// Card selectors, tried in order until one matches.
var cardSelectors = []string{
	".artdeco-entity-lockup",
	"[data-x--lead-card]",
}

// Link selectors inside a card, tried in order.
var linkSelectors = []string{
	`a[data-control-name="view_lead_panel_via_search_result"]`,
	".artdeco-entity-lockup__title a",
}

// MinCardText is the shortest card text kept; shorter cards are layout noise.
const MinCardText = 20

var pageParam = regexp.MustCompile(`([?&])page=\d*`)

// PageURL returns the URL of the given 1-based page. A URL that already
// carries a page parameter has it rewritten; otherwise one is appended.
func PageURL(base string, page int) string {
	if pageParam.MatchString(base) {
		return pageParam.ReplaceAllString(base, fmt.Sprintf("${1}page=%d", page))
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}
