// Package ssh checks whether a freshly launched machine accepts SSH
// connections.
//
// A probe performs one TCP dial plus SSH handshake and authentication. It
// never retries; callers poll it on their own schedule.
package ssh
