/*
Package ports defines the driven ports (interfaces) for nodechain.

These interfaces decouple the definition graph from the host application that actually owns
the scene graph, allowing the same node and chain definitions to be materialized into an
in-memory scene, a Redis-backed scene, or a live host reached through a bridge.

# Key Interfaces

  - Host: Looks up, creates, parameterizes and connects concrete nodes.
  - DistributedLocker: Serializes call batches that share a host session across processes.
*/
package ports
