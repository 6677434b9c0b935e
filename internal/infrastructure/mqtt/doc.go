// Package mqtt provides MQTT connectivity for Pointwatch Core.
//
// It wraps the Eclipse Paho client with connection management, automatic
// reconnection, subscription restoration, and Pointwatch topic builders.
//
// The monitoring core publishes change events, batch summaries, and
// inference triggers, and subscribes to the operator reload topic. The
// dashboard and ML pipeline are external consumers of these topics.
//
// # Thread Safety
//
// All client methods are safe for concurrent use.
package mqtt
