// Package response characterizes engine functions offline. It drives one
// engine channel with a gate step, records the resulting control voltage and
// derives attack/release timing plus a magnitude spectrum of the trace.
package response
