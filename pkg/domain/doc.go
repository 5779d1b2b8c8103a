/*
Package domain contains the core data model of the foreman workflow engine.

It defines the shared State threaded through every turn of a run, the closed
vocabularies used for routing (AgentName, Route, TaskKind, Phase) and the
failure taxonomy reported when a run cannot finish. The package is pure: it has
no I/O and no dependencies outside the standard library.

# Key Entities

  - State: the record owned by exactly one run at a time (query, facts, draft, history).
  - Decision: what the decision collaborator proposes to the supervisor.
  - Failure: the terminal error descriptor, matchable with errors.Is.
  - LifecycleHooks: observability callbacks invoked by the engine.
*/
package domain
