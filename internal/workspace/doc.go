// Package workspace resolves the per-user Smart-Latex state directory.
//
// Everything persisted outside a project's working directory lives under a
// single root (default ~/.smartlatex, overridable via SMARTLATEX_HOME): the
// global config file, the template registry, persisted build reports, and
// the history database. The working directory itself only ever receives
// compiler artifacts and auxiliary files.
package workspace
