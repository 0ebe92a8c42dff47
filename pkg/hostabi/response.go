package hostabi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SmartTank/extension/internal/dispatcher"
)

// CmdTimestamp is answered without a dispatcher.
const CmdTimestamp = ":TIMESTAMP:"

// Call routes a command with arguments to its handler and formats the reply.
func Call(command string, args []string) string {
	d := GetDispatcher()
	if d == nil || !d.HasHandler(command) {
		return FormatResponse(command, nil, fmt.Errorf("no handler registered"))
	}

	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return FormatResponse(command, result, err)
}

// CallRaw handles the argument-less entry point. The host may append a payload after
// a pipe: ":TANK:REMOVE:|{"id":3}".
func CallRaw(input string) string {
	if input == CmdTimestamp {
		return FormatResponse(CmdTimestamp, getTimestamp(), nil)
	}
	command, payload, found := strings.Cut(input, "|")
	var args []string
	if found {
		args = []string{payload}
	}
	return Call(command, args)
}

// FormatResponse encodes a handler result for the host:
//
//	["ok","<command>"]
//	["ok","<command>",<result as JSON>]
//	["error","<command>","<message>"]
func FormatResponse(command string, result any, err error) string {
	if err != nil {
		return marshalReply("error", command, err.Error())
	}
	if result == nil {
		return marshalReply("ok", command)
	}
	return marshalReply("ok", command, result)
}

var errReplyTooLarge = errors.New("reply too large")

// FitReply makes sure a reply and its NUL terminator fit in limit bytes. A
// reply that does not fit is swapped for an error naming the command, since
// cutting JSON short leaves the host with something it cannot parse.
func FitReply(command, reply string, limit int) string {
	if len(reply) < limit {
		return reply
	}
	for _, short := range []string{
		FormatResponse(command, nil, errReplyTooLarge),
		FormatResponse("", nil, errReplyTooLarge),
	} {
		if len(short) < limit {
			return short
		}
	}
	return ""
}

func marshalReply(status, command string, rest ...any) string {
	reply := append([]any{status, command}, rest...)
	b, err := json.Marshal(reply)
	if err != nil {
		b, _ = json.Marshal([]string{"error", command, fmt.Sprintf("encoding result: %v", err)})
	}
	return string(b)
}

func getTimestamp() string {
	return strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
}
