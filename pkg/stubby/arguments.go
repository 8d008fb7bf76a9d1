package stubby

import (
	"sort"
	"strconv"
)

// stubby4j command-line option names.
const (
	OptionAddress      = "location"
	OptionConfig       = "data"
	OptionClientPort   = "stubs"
	OptionTLSPort      = "tls"
	OptionAdminPort    = "admin"
	OptionDisableSSL   = "disable_ssl"
	OptionDisableAdmin = "disable_admin_portal"
	OptionMute         = "mute"
	OptionDebug        = "debug"
	OptionWatch        = "watch"
)

// DefaultAddress is the address stubby binds to.
const DefaultAddress = "localhost"

// Arguments is the option set handed to stubby4j. An empty value marks a
// flag that takes no argument.
type Arguments map[string]string

// BuildArguments translates cfg into stubby4j options. Absent HTTPS and admin
// ports produce explicit disable directives; false flags produce nothing.
func BuildArguments(cfg Config) Arguments {
	args := Arguments{
		OptionAddress:    DefaultAddress,
		OptionConfig:     cfg.StubsFile,
		OptionClientPort: strconv.Itoa(cfg.HTTPPort),
	}

	if cfg.HTTPSPort != nil {
		args[OptionTLSPort] = strconv.Itoa(*cfg.HTTPSPort)
	} else {
		args[OptionDisableSSL] = ""
	}

	if cfg.AdminPort != nil {
		args[OptionAdminPort] = strconv.Itoa(*cfg.AdminPort)
	} else {
		args[OptionDisableAdmin] = ""
	}

	if cfg.Mute {
		args[OptionMute] = ""
	}
	if cfg.Debug {
		args[OptionDebug] = ""
	}
	if cfg.Watch {
		args[OptionWatch] = ""
	}

	return args
}

// Has reports whether the option is present.
func (a Arguments) Has(option string) bool {
	_, ok := a[option]
	return ok
}

// Port returns the numeric value of a port option.
func (a Arguments) Port(option string) (int, bool) {
	v, ok := a[option]
	if !ok {
		return 0, false
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return p, true
}

// Keys returns the option names in sorted order.
func (a Arguments) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CommandLine renders the options as stubby4j command-line tokens in sorted
// key order: "--key value", or a bare "--key" for flags.
func (a Arguments) CommandLine() []string {
	out := make([]string, 0, len(a)*2)
	for _, k := range a.Keys() {
		out = append(out, "--"+k)
		if v := a[k]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Flags renders only the valueless options as "--key" tokens, sorted.
func (a Arguments) Flags() []string {
	var out []string
	for _, k := range a.Keys() {
		if a[k] == "" {
			out = append(out, "--"+k)
		}
	}
	return out
}
