package dna

import (
	"strconv"
	"strings"
)

// Zone names.
const (
	ZoneHeader   = "header"
	ZoneNav      = "nav"
	ZoneHero     = "hero"
	ZoneFooter   = "footer"
	ZoneMain     = "main"
	ZoneSection  = "section"
	ZoneDecor    = "decorative"
	ZoneIconLike = "icon"
)

// Zone is a node assigned to a structural slot. Shell zones must be
// reproduced verbatim by a generator; the rest may be regenerated.
type Zone struct {
	Zone        string      `json:"zone"`
	Tag         string      `json:"tag"`
	Selector    string      `json:"selector"`
	Shell       bool        `json:"shell"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

// StructuralHierarchy maps a tree onto page zones. Slots are nil when
// nothing matched.
type StructuralHierarchy struct {
	Header        *Zone  `json:"header"`
	Nav           *Zone  `json:"nav"`
	Hero          *Zone  `json:"hero"`
	Footer        *Zone  `json:"footer"`
	Main          *Zone  `json:"main"`
	Sections      []Zone `json:"sections"`
	ShellElements []Zone `json:"shellElements"`
}

type slotRule struct {
	zone     string
	tag      string
	keywords []string
	shell    bool
}

var slotRules = []slotRule{
	{zone: ZoneHeader, tag: "header", keywords: []string{"header"}, shell: true},
	{zone: ZoneNav, tag: "nav", keywords: []string{"gnav"}, shell: true},
	{zone: ZoneHero, keywords: []string{"hero", "kv", "mainvisual"}},
	{zone: ZoneFooter, tag: "footer", keywords: []string{"footer"}, shell: true},
	{zone: ZoneMain, tag: "main"},
}

var decorKeywords = []string{"icon", "logo", "deco", "decorative", "ornament"}

// AnalyzeStructure classifies zones with default limits.
func AnalyzeStructure(elements []Element) StructuralHierarchy {
	return AnalyzeStructureWith(elements, DefaultLimits())
}

// AnalyzeStructureWith classifies a tree into zones. For each slot an exact
// tag match anywhere in the tree beats a selector keyword match; within each
// kind the first node in pre-order wins.
func AnalyzeStructureWith(elements []Element, limits Limits) StructuralHierarchy {
	limits = limits.withDefaults()
	tagHit := make([]*Zone, len(slotRules))
	keywordHit := make([]*Zone, len(slotRules))
	h := StructuralHierarchy{Sections: []Zone{}, ShellElements: []Zone{}}
	var decor []Zone

	Walk(elements, func(el *Element, _ int) bool {
		tag := tagOf(el)
		sel := strings.ToLower(el.Selector)
		for i, rule := range slotRules {
			if tagHit[i] == nil && rule.tag != "" && tag == rule.tag {
				tagHit[i] = newZone(el, rule.zone, rule.shell)
			}
			if keywordHit[i] == nil && containsAny(sel, rule.keywords) {
				keywordHit[i] = newZone(el, rule.zone, rule.shell)
			}
		}
		if tag == "section" && len(h.Sections) < limits.SectionCap {
			h.Sections = append(h.Sections, *newZone(el, ZoneSection, false))
		}
		if tag == "svg" {
			decor = append(decor, *newZone(el, ZoneIconLike, true))
		} else if containsAny(sel, decorKeywords) {
			decor = append(decor, *newZone(el, ZoneDecor, true))
		}
		return true
	})

	slots := make([]*Zone, len(slotRules))
	for i := range slotRules {
		slots[i] = tagHit[i]
		if slots[i] == nil {
			slots[i] = keywordHit[i]
		}
	}
	h.Header, h.Nav, h.Hero, h.Footer, h.Main = slots[0], slots[1], slots[2], slots[3], slots[4]

	seen := map[string]struct{}{}
	addShell := func(z Zone) {
		if len(h.ShellElements) >= limits.ShellCap {
			return
		}
		key := z.Tag + "\x00" + z.Selector + "\x00" + boxKey(z.BoundingBox)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		h.ShellElements = append(h.ShellElements, z)
	}
	for _, z := range []*Zone{h.Header, h.Nav, h.Footer} {
		if z != nil {
			addShell(*z)
		}
	}
	for _, z := range decor {
		addShell(z)
	}
	return h
}

func newZone(el *Element, zone string, shell bool) *Zone {
	return &Zone{
		Zone:        zone,
		Tag:         tagOf(el),
		Selector:    el.Selector,
		Shell:       shell,
		BoundingBox: el.BoundingBox,
	}
}

func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func boxKey(b BoundingBox) string {
	return strings.Join([]string{ftoa(b.X), ftoa(b.Y), ftoa(b.Width), ftoa(b.Height)}, ",")
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
