// Package session persists browser sessions between bridge invocations.
//
// Each session is a directory under the configured sessions root:
//
//	<root>/<session-id>/storageState.json   browser cookies and local storage
//	<root>/<session-id>/refs.json           reference table from the last snapshot
//
// Both artifacts are optional until first written. The storage state is an
// opaque blob produced by the browser engine. The reference table maps
// snapshot tokens such as "@e3" to CSS locators, and is replaced wholesale
// by every snapshot.
//
// Nothing here serializes concurrent invocations against the same session.
// Writes are atomic renames, so the last writer wins.
package session
