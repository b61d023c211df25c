package campaign

import "strings"

// Category classifies a campaign for discovery. Wire values match the
// original contract enumeration and are persisted as-is.
type Category int

const (
	CategoryTechnology Category = iota
	CategoryArt
	CategoryCommunity
	CategoryBusiness
	CategoryCharity
	CategoryOther
)

// IsValid reports whether the category is inside the closed enum range.
func (c Category) IsValid() bool {
	return c >= CategoryTechnology && c <= CategoryOther
}

// Label returns a stable label for a campaign category.
func (c Category) Label() string {
	switch c {
	case CategoryTechnology:
		return "TECHNOLOGY"
	case CategoryArt:
		return "ART"
	case CategoryCommunity:
		return "COMMUNITY"
	case CategoryBusiness:
		return "BUSINESS"
	case CategoryCharity:
		return "CHARITY"
	case CategoryOther:
		return "OTHER"
	default:
		return "UNSPECIFIED"
	}
}

// CategoryFromLabel parses a string label into a Category. It trims
// whitespace and matches case-insensitively.
func CategoryFromLabel(value string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "TECHNOLOGY":
		return CategoryTechnology, true
	case "ART":
		return CategoryArt, true
	case "COMMUNITY":
		return CategoryCommunity, true
	case "BUSINESS":
		return CategoryBusiness, true
	case "CHARITY":
		return CategoryCharity, true
	case "OTHER":
		return CategoryOther, true
	default:
		return CategoryOther, false
	}
}
