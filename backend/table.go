package backend

import "strings"

// ParseDriverOrder parses the config `drivers` setting: a comma-separated
// ordered list of backend names; an entry prefixed `-` removes that name
// from the default order instead of appending it; a trailing non-empty
// entry caps the list to the names given, while a trailing empty entry
// (e.g. "pulse,") appends the remaining defaults after them.
//
// A name listed twice is duplicate-tolerant by promotion — the *last*
// occurrence of a name wins its position in the output, rather than the
// list rejecting the duplicate. This mirrors how viper treats repeated
// config keys: last write wins, no error. Example:
// ParseDriverOrder("oto,pulse,oto", []string{"oto","pulse","headless"})
// produces ["pulse","oto"] — "oto" is repositioned to where its second
// mention appears, not duplicated.
func ParseDriverOrder(spec string, defaults []string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return append([]string(nil), defaults...)
	}

	raw := strings.Split(spec, ",")

	removed := make(map[string]bool)
	var order []string
	seen := make(map[string]int) // name -> index in order

	appendOrMove := func(name string) {
		if idx, ok := seen[name]; ok {
			// Promote: drop the old position, append fresh at the end.
			order = append(order[:idx], order[idx+1:]...)
			for n, i := range seen {
				if i > idx {
					seen[n] = i - 1
				}
			}
			delete(seen, name)
		}
		seen[name] = len(order)
		order = append(order, name)
	}

	capped := false
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			removed[strings.TrimPrefix(tok, "-")] = true
			continue
		}
		appendOrMove(tok)
		capped = true
	}

	if !capped {
		// No explicit positive entries: fall back to defaults minus removals.
		for _, d := range defaults {
			if !removed[d] {
				order = append(order, d)
			}
		}
		return order
	}

	if strings.TrimSpace(raw[len(raw)-1]) == "" {
		// Trailing empty entry: the list is not capped.
		for _, d := range defaults {
			if _, ok := seen[d]; !ok {
				order = append(order, d)
			}
		}
	}

	out := make([]string, 0, len(order))
	for _, name := range order {
		if !removed[name] {
			out = append(out, name)
		}
	}
	return out
}

// SelectFactory walks factories in the order names specifies and returns
// the first whose Init succeeds AND which Supports(kind): the first entry
// whose factory successfully initializes and reports support for the
// given kind wins.
func SelectFactory(names []string, factories map[string]Factory, kind Kind) Factory {
	for _, name := range names {
		f, ok := factories[name]
		if !ok {
			continue
		}
		if !f.Init() {
			continue
		}
		if f.Supports(kind) {
			return f
		}
	}
	return nil
}
