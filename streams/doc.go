// Package streams emulates a two-channel analog dynamics/envelope processor
// as a real-time, sample-accurate, polyphonic signal engine.
//
// Each channel runs one of six selectable processing functions (envelope,
// vactrol, follower, compressor, filter controller, Lorenz generator), each
// with a normal and an alternate personality. A function turns one sample of
// excite/signal/level input into a unipolar control voltage that drives the
// channel VCA, an audio output sample, and four-segment bicolor meter state.
//
// The package is organized bottom-up:
//   - Channel: one stateful per-channel processor with hot-swappable
//     function selection and a function-button cycle state machine.
//   - Engine: one polyphonic voice owning two channels and a shared
//     UiSettings copy.
//   - Array: up to 16 engines under one configuration, with settings
//     broadcast, growth-time UI synchronization and max-brightness light
//     aggregation.
//
// All processing is single-threaded and allocation-free; Process calls
// complete in bounded, data-independent time. Constructors and sample-rate
// setters validate their inputs and return errors; the per-sample path
// never does.
package streams
