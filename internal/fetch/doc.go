// Package fetch acquires card image bytes into the local cache.
//
// Sources are either plain HTTP(S) URLs or Google Drive file IDs; Drive's
// virus-scan interstitial is confirmed transparently. Files land via a temp
// write plus rename so the cache never holds a truncated image.
package fetch
