// Package flagx holds helpers for sharing os.Args between independent flag sets.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigFileEnv names the environment variable consulted when no config
// file flag is given.
const ConfigFileEnv = "CONFIG"

// FilterArgs keeps only the flags listed in allowedFlags, together with their
// values. Both "-c conf.json" and "--config=conf.json" forms are recognised.
// A token starting with "-" is never consumed as a value.
//
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFilePath returns the config file given with -c or -config in args,
// falling back to the CONFIG environment variable. Empty means no file.
func ConfigFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	return path
}
