// Package render runs WAV files through an engine array offline. It wraps
// the array in a beep.Streamer so rendered audio can be encoded, played, or
// chained with other streamers.
package render
