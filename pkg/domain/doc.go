/*
Package domain contains the core models of the wizard engine.

It defines the node graph (menus, field sequences and lazy placeholders), the
results exchanged with the host loop, the raw descriptions produced by config
sources and the durable session snapshot. The package has no I/O and no
third-party dependencies.

# Key Entities

  - Node: a closed sum type of *OptionsNode, *ContextNode and *HolderNode.
  - Field: a context slot, either *PlainField or *VerifiedField.
  - OutputResult / TransitionResult: what navigation hands back to the host.
  - Entry: one collected {node, field, value} triple.
  - Description: the parsed description of a node before it is built.
  - Snapshot: the journal used to restore a session.
*/
package domain
