package shell

import (
	"github.com/chzyer/readline"
)

// completer builds tab completion from the registered commands. Arguments are
// completed dynamically so that recent project names stay current.
func (s *Shell) completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(s.registry.List()))
	for _, name := range s.registry.List() {
		command, _ := s.registry.Get(name)
		items = append(items, readline.PcItem(name,
			readline.PcItemDynamic(func(line string) []string {
				return command.Completions(line)
			}),
		))
	}
	return readline.NewPrefixCompleter(items...)
}
