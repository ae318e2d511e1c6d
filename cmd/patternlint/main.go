// Command patternlint validates a pattern catalog and prints its
// contents. It exits non-zero on a malformed catalog so CI can gate
// catalog edits.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"researchd/internal/pattern"
)

func main() {
	dir := flag.String("dir", "", "catalog directory (default: embedded catalog)")
	verbose := flag.Bool("v", false, "print each pattern's slots")
	flag.Parse()

	var (
		reg *pattern.Registry
		err error
	)
	if *dir != "" {
		reg, err = pattern.LoadDir(*dir)
	} else {
		reg, err = pattern.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "patternlint: %v\n", err)
		os.Exit(1)
	}

	patterns := reg.List()
	families := make(map[string]int)
	for _, p := range patterns {
		families[p.Category]++
		if *verbose {
			slots := strings.Join(p.Slots, ", ")
			if slots == "" {
				slots = "(none)"
			}
			fmt.Printf("%-50s %-28s slots: %s\n", p.Name, p.Category, slots)
		}
	}

	fmt.Printf("ok: %d patterns across %d families\n", len(patterns), len(families))
}
