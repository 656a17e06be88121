// Package protocol implements the line framing spoken by SerialCommand-style
// peripherals: outgoing commands are space-joined and newline-terminated,
// incoming responses are wrapped in enclosing delimiter characters.
//
// The protocol is purely textual. A response line is valid only if it carries
// a complete delimited span; anything else is treated as line noise and
// skipped by the caller, not reported as an error.
package protocol

import "strings"

const (
	// DefaultStartEnclosing and DefaultEndEnclosing wrap every well-formed
	// response emitted by the peripheral.
	DefaultStartEnclosing = '<'
	DefaultEndEnclosing   = '>'

	// DefaultUnknownSentinel is the payload the peripheral answers with when
	// it does not recognize the most recent command.
	DefaultUnknownSentinel = "UNSUPPORTED COMMAND"

	// DefaultResetCommand is sent right after connecting when reset-on-connect
	// is enabled. How the board reacts to it is firmware-defined.
	DefaultResetCommand = "RESET"

	// PingCommand is the keepalive command issued by the ping scheduler.
	PingCommand = "PING"

	// Terminator ends every outgoing command line.
	Terminator = "\n"
)

// Encode builds the wire line for a command and its arguments: the command
// and args joined by single spaces, terminated by a newline. No escaping is
// performed; embedded newlines or delimiter characters in arguments are the
// caller's responsibility.
func Encode(command string, args []string) string {
	if len(args) == 0 {
		return command + Terminator
	}
	return command + " " + strings.Join(args, " ") + Terminator
}

// Decode extracts the payload between the enclosing delimiters of a raw
// response line. The payload is the substring between the LAST occurrence of
// start and the first end following it, so an unterminated earlier fragment
// on the same line never shadows the final, complete frame.
//
// ok is false when the line carries no complete delimited span.
func Decode(line string, start, end byte) (payload string, ok bool) {
	i := strings.LastIndexByte(line, start)
	if i < 0 {
		return "", false
	}
	j := strings.IndexByte(line[i+1:], end)
	if j < 0 {
		return "", false
	}
	return line[i+1 : i+1+j], true
}
