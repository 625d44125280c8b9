// Package credential persists the admin's bearer token and role marker.
//
// A Store writes every Credential to an ordered list of backends and reads
// them back in order, so the first backend holding a usable token wins. The
// usual layout is a structured key-value backend first (file or Redis) with
// the cookie jar as fallback:
//
//	store := credential.NewStore(logger,
//	    credential.NewKVBackend(credential.NewFileKV(path)),
//	    credential.NewCookieBackend(jarPath),
//	)
//
// Token values "", "undefined" and "null" are never considered usable. They
// show up when a stringified missing value was written by an older client.
package credential
