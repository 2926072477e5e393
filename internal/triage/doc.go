// Package triage provides the business boundary for Warden's alert triage
// system. It defines the Service (dedup, lifecycle, async dispatch), Engine
// (deterministic score/correlate/decide pipeline), Store interface
// (persistence), and domain models.
package triage
