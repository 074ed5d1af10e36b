package scrape

import "fmt"

const (
	MaxDepth    = 12
	MaxChildren = 50
)

// extractScript walks document.body and returns a JSON array of elements in
// the dna.Element wire shape, reading computed styles. %d placeholders are
// the depth and per-node child caps.
const extractScript = `() => {
	const MAX_DEPTH = %d, MAX_CHILDREN = %d;
	const SKIP = new Set(['SCRIPT', 'STYLE', 'NOSCRIPT', 'TEMPLATE', 'LINK', 'META']);
	const selectorOf = (el) => {
		let s = el.tagName.toLowerCase();
		if (el.id) s += '#' + el.id;
		const cls = (typeof el.className === 'string' ? el.className : '').trim().split(/\s+/).filter(Boolean).slice(0, 3);
		for (const c of cls) s += '.' + c;
		return s;
	};
	const ownText = (el) => {
		let t = '';
		for (const n of el.childNodes) if (n.nodeType === 3) t += n.textContent;
		return t.replace(/\s+/g, ' ').trim().slice(0, 200);
	};
	const walk = (el, depth) => {
		const cs = getComputedStyle(el);
		const r = el.getBoundingClientRect();
		const node = {
			tagName: el.tagName.toLowerCase(),
			selector: selectorOf(el),
			textContent: ownText(el),
			boundingBox: { x: r.x + scrollX, y: r.y + scrollY, width: r.width, height: r.height },
			styles: {
				typography: {
					fontFamily: cs.fontFamily, fontSize: cs.fontSize, fontWeight: cs.fontWeight,
					lineHeight: cs.lineHeight, letterSpacing: cs.letterSpacing, textAlign: cs.textAlign, color: cs.color,
				},
				layout: {
					display: cs.display, position: cs.position, width: cs.width, height: cs.height,
					margin: cs.margin, padding: cs.padding, flexDirection: cs.flexDirection,
					justifyContent: cs.justifyContent, alignItems: cs.alignItems, gap: cs.gap, writingMode: cs.writingMode,
				},
				visual: {
					backgroundColor: cs.backgroundColor, borderRadius: cs.borderRadius, border: cs.border,
					boxShadow: cs.boxShadow, opacity: cs.opacity, overflow: cs.overflow,
				},
			},
			children: [],
		};
		if (depth + 1 < MAX_DEPTH) {
			for (const c of el.children) {
				if (node.children.length >= MAX_CHILDREN) break;
				if (SKIP.has(c.tagName)) continue;
				node.children.push(walk(c, depth + 1));
			}
		}
		return node;
	};
	const out = [];
	for (const c of document.body.children) {
		if (out.length >= MAX_CHILDREN) break;
		if (SKIP.has(c.tagName)) continue;
		out.push(walk(c, 0));
	}
	return JSON.stringify(out);
}`

func script() string { return fmt.Sprintf(extractScript, MaxDepth, MaxChildren) }
