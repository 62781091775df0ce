// Package security holds the in-process guards applied before any remote call
// is made on a user's behalf: address format checks, unit conversion, cooldowns,
// role gating and the token denylist.
//
// All state lives in process memory. A deployment running more than one bot
// process needs an external store with expiring keys instead.
package security
