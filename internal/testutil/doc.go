// Package testutil provides shared test helpers: raw chunk builders for the
// recognized envelope shapes and a scripted core.RawStream double with
// controllable delivery, failure injection and consumption accounting.
package testutil
