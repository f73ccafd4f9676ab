// Package capability implements the lifecycle shared by every identity provider.
//
// A provider variant declares once, at construction, which operations it
// supports and whether it must be initialized before use:
//
//	lc := capability.New("facebook",
//		capability.Capabilities{RequiresInit: true, SupportsLogin: true, SupportsShare: true},
//		capability.Hooks[InitConfig, LoginParams, ShareParams]{
//			Init:  p.init,
//			Login: p.login,
//			Share: p.share,
//		},
//		capability.WithLogger(logger),
//	)
//
// Init moves the lifecycle Uninitialized -> Initializing -> Ready. A failing
// hook returns it to Uninitialized; Ready is terminal and further Init calls
// are rejected. Login and Share check the capability flag first, then the
// initialization requirement, and only then run the hook.
package capability
