// Package inference publishes scheduled trigger messages for the
// external ML pipeline. The service does not run inference itself; it
// announces which time window and rooms are ready for analysis.
package inference
