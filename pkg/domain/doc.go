// Package domain contains the shared vocabulary of tether: end-of-life
// strategies, lifecycle and property events, the registry feed record, and
// sentinel errors. It has no dependencies on the registry or the adapters.
package domain
