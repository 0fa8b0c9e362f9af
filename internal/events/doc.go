// Package events provides a minimal in-memory publish/subscribe mechanism
// for operation lifecycle transitions. It decouples the queue scheduler
// from components that want to observe status changes without giving them
// any control over queue state.
package events
