// Package cli provides the presentation helpers shared by datapresso commands
// and the interactive shell.
//
// Printer renders recent projects, directory listings, configuration documents
// and single values as rounded tables, JSON or YAML. Progress shows a spinner
// around slow operations unless quiet mode is on. ExitCodeFor and DescribeError
// turn errors from the project layer into exit codes and user-facing text:
//
//	0  success (including a cancelled selection)
//	1  general failure
//	2  invalid settings
//	3  access to a directory was denied
//	4  the configuration file is malformed
//	5  the recent projects registry could not be read or written
package cli
