// Package cache provides a small TTL cache with a size bound.
package cache
