// Package flagx lets several components parse their own subset of os.Args
// without tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs picks out of args the flags named in allowedFlags, together
// with their values, so that one component's FlagSet never sees (and fails
// on) flags that belong to another. The server config, the JSON config
// lookup and seedadmin each run it over the same os.Args.
//
// Recognized forms:
//  1. Name and value as two tokens:  -a :8080
//  2. Name and value joined by '=':  -password=s3cret
//  3. A bare name with no value:     -d (kept; the FlagSet reports it)
//
// Names are matched exactly, so "-u" does not select "-user". A token that
// starts with "-" is never consumed as a value.
//
// Parameters:
//
//	args         - command-line arguments, normally os.Args[1:]
//	allowedFlags - flag names including the dash, e.g. []string{"-c", "-config"}
//
// Returns:
//
//	A non-nil slice of the selected tokens in their original order.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	// empty rather than nil so fs.Parse sees "no arguments"
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// -name=value: keep or drop the token as a whole
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		// -name [value]: the next token is the value unless it is a flag itself
		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++ // value consumed
			}
		}
	}

	return filtered
}

// ConfigFileFlag extracts the JSON config path given via -c or -config.
// It returns "" when neither is present.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
