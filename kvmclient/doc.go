// Package kvmclient runs the client process: it dials the server, performs
// the session handshake, then runs two independent loops for the
// lifetime of the connection: a datagram loop that replays incoming input
// events on the local virtual device, and a reliable-channel loop that
// acknowledges target changes, releases held keys on request, and sends
// its own heartbeat. [Supervisor] wraps one connection attempt with
// exponential-backoff reconnection.
package kvmclient
