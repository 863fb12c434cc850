// Package twitch is a small Helix client covering the endpoints the agenda
// needs: identity, followed channels, schedules and games.
package twitch
