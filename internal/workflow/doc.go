// Package workflow walks a card order through the designer's fixed page
// sequence. A Driver owns the run's single workflow state, starts the
// download pipeline for both faces, and hands each face to the sequencer
// once the designer is on the matching page. Every public operation
// checks its entry state first and fails without side effects when the
// run is anywhere else.
package workflow
