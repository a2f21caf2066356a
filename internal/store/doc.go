// Package store holds the badge's current state and fans changes out to
// subscribers.
//
// The main components are:
//
//   - [Store]: interface defining storage and subscription operations
//   - [MemoryStore]: in-memory implementation of Store with pub/sub
//   - [BadgeRecord]: storage representation of one applied poll cycle
//
// There is exactly one indicator, so the store keeps a single record and
// every update replaces it. Subscribers receive updates via channels with
// non-blocking sends: slow subscribers miss updates rather than block the
// poller.
package store
