// Package browser abstracts the remote interactive session.
//
// Session is the boundary the sequencer and workflow drive the site
// through: element lookup, script execution, frame switching, dialog
// dismissal, and a bounded invisibility wait. The production implementation
// speaks the WebDriver protocol to a chromedriver or selenium server; tests
// substitute in-memory fakes.
package browser
