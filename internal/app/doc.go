// Package app is the composition root of datapresso.
//
// NewApplication loads Settings through internal/config, initializes logging
// and builds the component graph:
//
//	FileStore(registry_dir) -> recent.Registry
//	capability.Broker(prompter)
//	workflow.Store
//	project.Manager(broker, registry, store, picker, notifier)
//
// The prompter answers yes for every directory when assume_yes is set and
// asks on the terminal otherwise. Commands and the shell can replace the
// prompter, picker and notifier through Config.
package app
