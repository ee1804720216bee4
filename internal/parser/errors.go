package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Usage maps each verb to its syntax line.
var Usage = map[string]string{
	"move":    "move <direction>  (or just n, s, e, w, ne, nw, se, sw)",
	"attack":  "attack <target>",
	"use":     "use <item> [on <target>]",
	"cast":    "cast <skill> [on <target>]",
	"harvest": "harvest [<part> from] <target>",
	"craft":   "craft <recipe>",
	"build":   "build <structure>",
	"rest":    "rest",
	"wait":    "wait",
	"equip":   "equip <item>",
	"unequip": "unequip <slot>",
	"drop":    "drop [count] <item>",
	"fuse":    "fuse <item> and <item> [and <item>]*",
	"hint":    "hint",
	"menu":    "menu",
	"help":    "help [command]",
}

var aliases = map[string]string{
	"go": "move", "walk": "move", "hit": "attack", "eat": "use", "drink": "use",
	"gather": "harvest", "sleep": "rest", "wield": "equip", "quit": "menu",
}

// MapError turns a grammar error into usage guidance for the verb typed.
func MapError(input string, err error) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand your command")
	}

	verb := strings.ToLower(strings.Fields(input)[0])
	if a, ok := aliases[verb]; ok {
		verb = a
	}
	if u, ok := Usage[verb]; ok {
		return fmt.Errorf("The command %s must be: %s", verb, u)
	}
	return fmt.Errorf("I wasn't able to understand your command")
}

// Help lists every command's usage in alphabetical order.
func Help() []string {
	verbs := make([]string, 0, len(Usage))
	for v := range Usage {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	out := make([]string, len(verbs))
	for i, v := range verbs {
		out[i] = Usage[v]
	}
	return out
}
