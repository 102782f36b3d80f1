/*
Package domain contains the core vocabulary shared by every nodechain package.

It defines the opaque concrete node handle returned by a host scene graph, the sentinel
errors used across materialization, and the lifecycle events emitted while definitions are
brought into existence. This package is kept pure and free of external dependencies, following
Hexagonal Architecture principles.

# Key Entities

  - Handle: A concrete node living in the host scene graph (path + type name).
  - LifecycleHooks: Callbacks fired on node creation and on non-fatal host failures.
  - Errors: Sentinels (ErrNotFound, ErrEmptyChain, ...) checked with errors.Is.
*/
package domain
