// Package livereload tells the browsers viewing a dev session that something
// changed. Tasks publish to a [Notifier]; the [Hub] forwards each
// notification to every page connected to the dev [Server].
package livereload

// Notifier receives notifications from tasks.
type Notifier interface {
	// Reload asks every page to reload.
	Reload()

	// Stream announces that the files at paths, relative to the server's
	// root, were rewritten. Pages swap stylesheets in place when every
	// path is css, and reload otherwise.
	Stream(paths ...string)
}

type nop struct{}

func (nop) Reload()           {}
func (nop) Stream(...string) {}

// Nop is the Notifier used outside of a dev session. It drops every
// notification.
var Nop Notifier = nop{}
