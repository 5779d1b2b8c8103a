/*
Package ports defines the driven ports (interfaces) of the foreman engine.

These interfaces decouple the orchestration core from concrete backends, so the
same workflow can run against web search and a language model, against offline
fixtures, or against test doubles.

# Key Interfaces

  - Searcher, Generator, Decider: the collaborators consulted by the agent nodes.
  - RunStore: persists run State for inspection and resume.
  - DistributedLocker: coordinates access to a run across replicas.
*/
package ports
