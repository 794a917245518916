// Package metrics derives growth rates, market shares and trend tables from a
// filtered slice of registrations.
//
// Every function is pure: it reads its input, never retains or mutates it, and
// is safe to call concurrently. Empty input yields empty output, never an error.
package metrics
