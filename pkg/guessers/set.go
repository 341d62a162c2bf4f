/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: set.go
Description: Guesser sets in recommended processing order, and a name registry so the
order can be chosen from configuration.
*/

package guessers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/shell"
)

// factory builds a guesser; shell guessers run their tools through runner
type factory func(runner *shell.Runner) guesser.Guesser

var registry = map[string]factory{
	"corebom":     func(*shell.Runner) guesser.Guesser { return CoreBOM() },
	"morebom":     func(*shell.Runner) guesser.Guesser { return MoreBOM() },
	"markup":      func(*shell.Runner) guesser.Guesser { return Markup() },
	"file":        func(r *shell.Runner) guesser.Guesser { return File(r) },
	"applexattr":  func(r *shell.Runner) guesser.Guesser { return AppleXattr(r) },
	"nativexattr": func(*shell.Runner) guesser.Guesser { return NativeXattr() },
	"ascii":       func(*shell.Runner) guesser.Guesser { return ASCII() },
	"utf":         func(*shell.Runner) guesser.Guesser { return UTF() },
	"chardet":     func(*shell.Runner) guesser.Guesser { return Chardet() },
	"latin":       func(*shell.Runner) guesser.Guesser { return Latin() },
}

// DefaultOrder is the recommended order: cheap BOM checks first, platform
// tools next, byte statistics last, so confident answers stop the queue early
var DefaultOrder = []string{"CoreBOM", "MoreBOM", "File", "AppleXattr", "ASCII", "UTF", "Latin"}

// ExtendedOrder adds the library backed guessers to DefaultOrder
var ExtendedOrder = []string{"CoreBOM", "MoreBOM", "Markup", "File", "NativeXattr", "ASCII", "UTF", "Chardet", "Latin"}

// DefaultSet returns the default guessers in recommended processing order
func DefaultSet(runner *shell.Runner) []guesser.Guesser {
	set, _ := Build(DefaultOrder, runner)
	return set
}

// ExtendedSet returns every built-in guesser except AppleXattr, which
// NativeXattr replaces
func ExtendedSet(runner *shell.Runner) []guesser.Guesser {
	set, _ := Build(ExtendedOrder, runner)
	return set
}

// Named builds the guesser registered under name, case-insensitively
func Named(name string, runner *shell.Runner) (guesser.Guesser, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown guesser %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return f(runner), nil
}

// Build builds the named guessers in order
func Build(names []string, runner *shell.Runner) ([]guesser.Guesser, error) {
	set := make([]guesser.Guesser, 0, len(names))
	for _, name := range names {
		g, err := Named(name, runner)
		if err != nil {
			return nil, err
		}
		set = append(set, g)
	}
	return set, nil
}

// Names lists the registered guessers by their display name
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, f := range registry {
		names = append(names, f(nil).Name())
	}
	sort.Strings(names)
	return names
}
