// Package redis holds the Redis-backed stores: the deployment credential and
// the user preferences. Both live under fixed keys because a deployment serves
// exactly one account.
package redis
