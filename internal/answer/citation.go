// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

var authorDelim = regexp.MustCompile(`,\s*|;\s*`)

// Citation formats an inline citation for a paper, "(Lastname et al.,
// Year)" for multi-author papers and "(Lastname, Year)" for a single
// author. Missing fields degrade gracefully: no authors yields
// "(Year)", no year drops the year, neither yields "".
func Citation(ref types.PaperReference) string {
	authors := strings.TrimSpace(ref.Authors)
	year := strings.TrimSpace(ref.Year)

	if authors == "" {
		if year == "" {
			return ""
		}
		return fmt.Sprintf("(%s)", year)
	}

	list := authorDelim.Split(authors, -1)
	lastName := surname(strings.TrimSpace(list[0]))

	etAl := len(list) > 1
	switch {
	case etAl && year != "":
		return fmt.Sprintf("(%s et al., %s)", lastName, year)
	case etAl:
		return fmt.Sprintf("(%s et al.)", lastName)
	case year != "":
		return fmt.Sprintf("(%s, %s)", lastName, year)
	default:
		return fmt.Sprintf("(%s)", lastName)
	}
}

// surname extracts the family name from one author entry, handling
// both "Lastname, First" and "First Lastname" orderings.
func surname(author string) string {
	if i := strings.Index(author, ","); i >= 0 {
		return strings.TrimSpace(author[:i])
	}
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return author
	}
	return parts[len(parts)-1]
}
