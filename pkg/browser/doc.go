// Package browser is the browser capability layer used by the bridge.
//
// It exposes a small set of interfaces (Engine, Browser, Context and Page)
// covering exactly what the bridge needs: launch, isolated contexts seeded
// from a storage-state blob, navigation bounded by a timeout, script
// evaluation, fill, press, click, fixed waits, screenshots and reading the
// serialized DOM.
//
// # Engines
//
// Two backends implement the interfaces:
//
//   - PlaywrightEngine drives Chromium through playwright-go. It is the
//     default and installs its driver on first use.
//   - RodEngine drives Chromium over the DevTools protocol with go-rod.
//
// Both read and write storage state in the Playwright JSON format
// (see StorageState), so a session saved by one engine can be resumed by
// the other.
//
// # Errors
//
// A navigation that does not reach DOMContentLoaded in time fails with an
// error matching ErrNavigationTimeout.
package browser
