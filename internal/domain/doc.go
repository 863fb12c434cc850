// Package domain defines the core types and the contracts between components.
//
// Concept-oriented files (credential.go, schedule.go, filter.go, preferences.go, twitch.go)
// hold plain data plus the interfaces each consumer needs. No implementation code.
package domain
