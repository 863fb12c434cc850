// Package app provides the application service layer.
//
// Aggregator is the query cache in front of the schedule source. AuthService
// owns the credential lifecycle. Service assembles the agenda view from both,
// applying the schedule engine and the stored preferences.
package app
