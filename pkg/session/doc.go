/*
Package session coordinates access to persisted runs.

The Manager serializes operations on the same run ID inside a process with
reference counted mutexes, and across replicas with an optional
DistributedLocker. It guards resume and delete so a run is never advanced by
two callers at once.
*/
package session
