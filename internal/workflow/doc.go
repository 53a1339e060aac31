// Package workflow defines the workflow configuration tree and the in-memory
// store that owns it.
//
// A configuration has a name, a description and five pipeline sections:
//
//	workflowName: My LIMO workflow
//	workflowDescription: ""
//	seedConfig: {}
//	generationConfig: {}
//	filteringConfig: {}
//	assessmentConfig: {}
//	trainingConfig: {}
//
// Section contents are opaque key/value pairs. The package never validates or
// computes anything from them; it only keeps them in canonical form (see
// Canonical) so that the tree survives a round trip through the config file.
//
// Store is safe for concurrent use. UpdateSection merges keys into a section
// instead of replacing it:
//
//	s := workflow.NewStore()
//	_ = s.UpdateSection("generationConfig", workflow.Values{"model": "x"})
//	_ = s.UpdateSection("generationConfig", workflow.Values{"temperature": 0.5})
//	// generationConfig is now {model: x, temperature: 0.5}
package workflow
