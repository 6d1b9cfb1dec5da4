// Package event provides the Event type shared by every stage of a run.
//
// Events are scraped from a fixed set of listing sites (see Source), merged by
// URL with Aggregate, and annotated in place by later stages: the conflict
// filter sets ConflictWith and the ranker sets Score and ParsedStart. The
// DateParser interface turns the free-text start field each site publishes
// into a wall-clock time.
package event
