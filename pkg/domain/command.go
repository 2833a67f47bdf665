package domain

// CommandInvocation is one slash-command call, decoupled from the Discord
// interaction wire format.
type CommandInvocation struct {
	Name      string
	ChannelID string
	Args      map[string]string
}

// Arg returns the named argument, or empty when absent.
func (i CommandInvocation) Arg(name string) string {
	if i.Args == nil {
		return ""
	}
	return i.Args[name]
}

// Reply is a command's response: plain content, a rich embed, or both.
type Reply struct {
	Content string
	Embed   *Embed
}
