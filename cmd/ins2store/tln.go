package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// readTLN reverses internal/render's TLNRenderer: pipe-delimited rows
// of "Time|Source|Host|User|Description[|TZ|Notes]", auto-detecting
// the L2TTLN (7-field) header internal/render writes versus the
// plain 5-field TLN variant, mirroring the teacher's tlnparser.go
// ValidateFile/ReadEvents auto-detection.
func readTLN(r io.Reader) ([]*event.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)

	var events []*event.Event
	fieldCount := 0
	lineNum := 0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lineNum++
		if line == "" {
			continue
		}

		if fieldCount == 0 {
			switch line {
			case "Time|Source|Host|User|Description|TZ|Notes":
				fieldCount = 7
				continue
			case "Time|Source|Host|User|Description":
				fieldCount = 5
				continue
			}
			parts := strings.Split(line, "|")
			switch len(parts) {
			case 5, 7:
				fieldCount = len(parts)
			default:
				return nil, fmt.Errorf("line %d: expected 5 or 7 pipe-delimited fields, got %d", lineNum, len(parts))
			}
		}

		parts := strings.Split(line, "|")
		if len(parts) != fieldCount {
			return nil, fmt.Errorf("line %d: expected %d pipe-delimited fields, got %d", lineNum, fieldCount, len(parts))
		}
		events = append(events, tlnFieldsToEvent(parts))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// tlnFieldsToEvent converts parts (5 or 7 unescaped pipe fields:
// Time, Source, Host, User, Description[, TZ, Notes]) into an Event.
// The unicode pipe lookalike internal/render substitutes for a literal
// '|' inside Description/Notes is left as-is; TLN carries no inverse
// mapping for it.
func tlnFieldsToEvent(parts []string) *event.Event {
	seconds, _ := strconv.ParseInt(parts[0], 10, 64)
	ev := event.New(seconds*1_000_000, "", "", parts[1])

	setIfNonEmpty(ev, "hostname", parts[2])
	setIfNonEmpty(ev, "username", parts[3])
	setIfNonEmpty(ev, "body", parts[4])
	if len(parts) == 7 {
		setIfNonEmpty(ev, "timezone", parts[5])
		setIfNonEmpty(ev, "notes", parts[6])
	}
	return ev
}
