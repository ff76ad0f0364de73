// Package clientconn runs one client's reliable-channel connection: a
// reader goroutine that forwards every received message to the shared
// state processor, and a writer goroutine that multiplexes outbound
// messages against a periodic heartbeat, disconnecting the client after
// three consecutive heartbeat failures. Either goroutine exiting tears
// down the other.
package clientconn
