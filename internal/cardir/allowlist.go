package cardir

import (
	"strings"
	"sync/atomic"
)

// allowlistState is swapped atomically so reads never block a writer
// and a writer never observes a torn read (spec §9 "global mutable
// state... each read is cheap: snapshot atomic reference").
var allowlistState atomic.Pointer[[]string]

func init() {
	empty := []string{}
	allowlistState.Store(&empty)
}

// SetURLAllowlist replaces the process-wide URL allow-list. An empty
// list disables allow-list enforcement entirely (spec §4.1). Exposed
// explicitly so tests can substitute it rather than relying on
// module-load-time configuration (spec §9).
func SetURLAllowlist(prefixes []string) {
	cp := append([]string(nil), prefixes...)
	allowlistState.Store(&cp)
}

// URLAllowlist returns the current allow-list snapshot.
func URLAllowlist() []string {
	return *allowlistState.Load()
}

// URLAllowed reports whether url is permitted under the current
// allow-list. An empty allow-list permits everything.
func URLAllowed(url string) bool {
	prefixes := URLAllowlist()
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
