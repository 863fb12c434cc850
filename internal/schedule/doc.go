// Package schedule turns a flat stream collection into the agenda view:
// conjunctive filtering, stable locale-aware sorting and grouping by day and
// start time. Everything here is pure; the current time and the display zone
// are always passed in.
package schedule
