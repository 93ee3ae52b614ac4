package tether

// Version is the library version, injected into the CLI banner.
const Version = "0.2.0"
