package chat

// CommandKind enumerates every command the protocol knows about. Unknown
// input parses to CmdUnknown rather than failing, so "unknown command" is
// an explicit dispatch case.
type CommandKind int

const (
	CmdLogin CommandKind = iota
	CmdMsg
	CmdWho
	CmdDM
	CmdPing
	CmdUnknown
)

func (k CommandKind) String() string {
	switch k {
	case CmdLogin:
		return "LOGIN"
	case CmdMsg:
		return "MSG"
	case CmdWho:
		return "WHO"
	case CmdDM:
		return "DM"
	case CmdPing:
		return "PING"
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed protocol line: the uppercased first token mapped to
// its kind, plus the trimmed remainder.
type Command struct {
	Kind CommandKind
	Arg  string
}

var (
	ErrNameTaken   = errorString("username-taken")
	ErrNameInvalid = errorString("invalid-username")
)

type errorString string

func (e errorString) Error() string { return string(e) }
