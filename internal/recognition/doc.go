// Package recognition turns the raw output of an image analysis service into a
// single movie identification.
//
// The Resolver walks three candidate pools in priority order: whole-image best
// guess labels, scored web entities, and OCR text windows. Each candidate is
// validated against a TitleSearcher. Web entities are bucketed by how their
// text relates to the title they resolved to, so an actor name that happens to
// resolve to some unrelated film never outranks a title-shaped entity.
//
// The resolver never returns an error: search failures are logged and folded
// into "no match for this candidate", and callers only ever see an Outcome.
package recognition
