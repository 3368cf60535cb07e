// Package redis connects to Redis with go-redis and provides a session.Store
// so several processes can share signed-in sessions.
package redis
