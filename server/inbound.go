// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/SoftbearStudios/terrastream/server/world"
	"github.com/finnbear/moderation"
)

const (
	viewerNameLengthMin = 1
	viewerNameLengthMax = 24
)

// Make sure to register in init function
type (
	// Hello introduces a viewer by name. The name is optional; invalid
	// or empty names get a generated one.
	Hello struct {
		Name string `json:"name"`
	}

	// InvalidInbound means invalid message type from client (possibly out of date).
	// NOTE: Do not register, otherwise client could send type "invalidInbound"
	InvalidInbound struct {
		messageType messageType
	}

	// ObserverUpdate moves the observer whose surroundings are kept
	// loaded. The last update wins when multiple clients send them.
	ObserverUpdate struct {
		Position world.Vec2f `json:"position"`
	}

	// Stress generates a line of chunks to benchmark generation
	// throughput. Auth is required when the server was started with one.
	Stress struct {
		Auth   string `json:"auth"`
		Chunks int    `json:"chunks"`
	}

	// Trace sends debug info.
	Trace struct {
		FPS float32 `json:"fps"`
	}
)

func init() {
	registerInbound(
		Hello{},
		ObserverUpdate{},
		Stress{},
		Trace{},
	)
}

var reservedNames = [...]string{
	"admin",
	"console",
	"dev",
	"moderator",
	"observer",
	"root",
	"server",
	"system",
}

func (data Hello) Inbound(h *Hub, client Client) {
	if client == nil {
		return
	}

	name, ok := sanitize(data.Name, true, viewerNameLengthMin, viewerNameLengthMax)
	if ok {
		lower := strings.ToLower(name)
		for _, reservedName := range reservedNames {
			if lower == reservedName {
				ok = false
				break
			}
		}
	}

	if !ok {
		r := getRand()
		name = fmt.Sprintf("viewer-%04x", r.Intn(1<<16))
		poolRand(r)
	}

	client.Data().Name = name
	fmt.Println("viewer joined:", name)
}

func (data ObserverUpdate) Inbound(h *Hub, _ Client) {
	h.observer = data.Position
}

func (data Stress) Inbound(h *Hub, _ Client) {
	if h.auth != "" && data.Auth != h.auth {
		fmt.Println("stress denied: bad auth")
		return
	}

	h.startStress(data.Chunks)
}

func (trace Trace) Inbound(_ *Hub, client Client) {
	if client == nil || trace.FPS <= 0 {
		return
	}

	// Clamp to 60 for people possibly rendering above to not pollute average
	if trace.FPS > 60 {
		trace.FPS = 60
	}

	data := client.Data()
	data.FPS = trace.FPS

	_ = AppendLog("/tmp/terrastream-trace.log", []interface{}{
		unixMillis(),
		data.Name,
		trace.FPS,
	})
}

func (data InvalidInbound) Inbound(_ *Hub, _ Client) {}

func trimUtf8(in string, low, high int) (str string, ok bool) {
	if !utf8.ValidString(in) {
		return "", false
	}

	// Remove spaces
	str = strings.TrimSpace(in)
	str = strings.TrimFunc(str, func(r rune) bool {
		// NOTE: The following characters are not detected by
		// unicode.IsSpace() but show up as blank

		// https://www.compart.com/en/unicode/U+2800
		// https://www.compart.com/en/unicode/U+200B
		return r == 0x2800 || r == 0x200B
	})

	// Too long but can resize down
	if len(str) > high {
		var builder strings.Builder
		for _, r := range str {
			if builder.Len()+utf8.RuneLen(r) > high {
				break
			}
			builder.WriteRune(r)
		}
		str = builder.String()
	}

	// Too short
	if len(str) < low {
		return "", false
	}
	ok = true
	return
}

func sanitize(text string, name bool, low, high int) (string, bool) {
	if name {
		// Remove these characters
		// Brackets are used in formatting
		// * is used for censoring
		const removals = "()[]{}*"
		for i := 0; i < len(removals); i++ {
			text = strings.ReplaceAll(text, removals[i:i+1], "")
		}
	}

	text = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, text)

	text, ok := trimUtf8(text, low, high)
	if !ok {
		return "", false
	}

	if name {
		// Censor name
		result := moderation.Scan(text)

		if result.Is(moderation.Inappropriate) {
			if result.Is(moderation.Inappropriate & moderation.Moderate) {
				return "", false
			}
			text, _ = moderation.Censor(text, moderation.Inappropriate)
		}
	}

	return text, true
}
