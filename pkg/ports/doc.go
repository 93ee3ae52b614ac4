/*
Package ports defines the driven ports (interfaces) around the tether
registry.

These interfaces decouple the core from concrete adapters, allowing the
registry feed to flow into any backend and any object to act as a property
source.

# Key Interfaces

  - EventSink: Receives the registry's event feed (memory, redis, metrics, SSE hub).
  - PropertySource: Exposes current values and change notifications for dot-paths.
*/
package ports
