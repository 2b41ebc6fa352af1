// pkg/escpos/layout/profile.go
package layout

import (
	"sort"
	"strings"
)

// Profile describes the printable area of a paper width
type Profile struct {
	Name          string `json:"name"`
	DotWidth      int    `json:"dot_width"`
	SingleColumns int    `json:"single_columns"`
	DoubleColumns int    `json:"double_columns"`
}

// Profile names
const (
	Profile58mm = "58mm"
	Profile80mm = "80mm"
)

var profiles = map[string]Profile{
	Profile58mm: {Name: Profile58mm, DotWidth: 384, SingleColumns: 31, DoubleColumns: 15},
	Profile80mm: {Name: Profile80mm, DotWidth: 568, SingleColumns: 47, DoubleColumns: 23},
}

// DefaultProfile is the profile used when none is selected
func DefaultProfile() Profile {
	return profiles[Profile58mm]
}

// LookupProfile finds a profile by name. "58" and "80" are accepted as well.
func LookupProfile(name string) (Profile, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(key, "mm") {
		key += "mm"
	}
	p, ok := profiles[key]
	return p, ok
}

// Profiles lists every known profile ordered by width
func Profiles() []Profile {
	list := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DotWidth < list[j].DotWidth })
	return list
}

// Columns returns the column budget when glyphs are magnified scale times
// horizontally.
func (p Profile) Columns(scale int) int {
	switch {
	case scale <= 1:
		return p.SingleColumns
	case scale == 2:
		return p.DoubleColumns
	default:
		return p.SingleColumns / scale
	}
}
