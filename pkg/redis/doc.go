// Package redis wraps go-redis client construction with URL-based
// configuration, startup retry, and a health check helper. The session
// package uses it for its Redis-backed session store.
package redis
