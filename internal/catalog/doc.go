// Package catalog loads named filter predicates from YAML files or CUE
// directories for batch compilation by `qarray check`.
package catalog
