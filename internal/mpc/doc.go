// Package mpc is the client for the card designer site.
//
// It owns every page selector and javascript snippet the workflow needs:
// wizard dropdowns, designer paging, image-mode switching, the upload
// polling loop, and per-slot placement. Callers hand it a browser.Session
// and express intent ("upload this file", "insert into these slots"); the
// client absorbs the site's timing noise — loading indicators, transient
// busy states, unsolicited dialogs — so those never leak upward.
package mpc
