// Package shell implements the interactive datapresso session.
//
// A one-shot command opens a project, does one thing and exits. The shell
// keeps one Application alive instead, so the active project, the access
// grants and the in-memory configuration carry over between commands:
//
//	datapresso> open ~/projects/limo
//	datapresso [limo]> set trainingConfig.epochs 3
//	datapresso [limo]> save
//
// While a project is open its config file is watched and reloaded when another
// program changes it. Log output is printed above the prompt.
package shell
