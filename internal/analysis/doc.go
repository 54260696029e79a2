// Package analysis orchestrates content-boundary detection runs. A run
// covers one video and one phase selection (visual, audio, or both): it
// probes the source, streams frames and PCM through the detectors, clusters
// near-duplicate events, and persists results per phase so a partial re-run
// never destroys the other phase's data.
//
// Runs are serialized per video and report live progress through a Tracker;
// the persisted run row in the store is the durable record.
package analysis
