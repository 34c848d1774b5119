package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxRoomNameLength is the cap on sanitized room identifiers, in runes.
const MaxRoomNameLength = 100

// DefaultRoom is the room the bare path maps to.
const DefaultRoom = "main"

// allowedRoomRune is the sanitizer allow-list: ASCII alphanumerics, a few
// Unicode script ranges (Latin supplement/extended, Cyrillic, kana, CJK) and
// a fixed punctuation set including the slash/asterisk placeholder glyphs.
func allowedRoomRune(r rune) bool {
	if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
		return true
	}
	if r >= 0x0080 && r <= 0x024F { // Latin-1 supplement + Latin extended
		return true
	}
	if r >= 0x0400 && r <= 0x04FF { // Cyrillic
		return true
	}
	if r >= 0x3040 && r <= 0x30FF { // hiragana + katakana
		return true
	}
	if r >= 0x3400 && r <= 0x4DBF || r >= 0x4E00 && r <= 0x9FFF { // CJK
		return true
	}
	switch r {
	case '\'', '?', '!', '&', '@', '-', '~', '+', '%', '$', '#', '^', '*', '÷', '×', '=', ':', ';', '_':
		return true
	}
	return false
}

// SanitizeRoomName normalizes free text into a canonical room identifier.
// Whitespace becomes '_', '/' and '*' become placeholder glyphs, the rest is
// lowercased, filtered against the allow-list and truncated. The transform
// is idempotent; an empty result means no room selected.
func SanitizeRoomName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			r = '_'
		case r == '/':
			r = '÷'
		case r == '*':
			r = '×'
		}
		r = unicode.ToLower(r)
		if allowedRoomRune(r) {
			b.WriteRune(r)
		}
	}
	out := []rune(b.String())
	if len(out) > MaxRoomNameLength {
		out = out[:MaxRoomNameLength]
	}
	return string(out)
}

// RoomFromPath derives the canonical room from a location path.
// "/" maps to the default room, "/t/<room>" to that room.
func RoomFromPath(path string) string {
	if path == "" || path == "/" {
		return DefaultRoom
	}
	if strings.HasPrefix(path, "/t/") {
		if room := SanitizeRoomName(path[len("/t/"):]); room != "" {
			return room
		}
	}
	return DefaultRoom
}

// PathForRoom is the inverse of RoomFromPath for location updates.
func PathForRoom(room string) string {
	if room == DefaultRoom {
		return "/"
	}
	return "/t/" + room
}

// RoomColor maps a room id to its background color. The default room is
// pinned to neutral black regardless of hash.
func RoomColor(room string) string {
	if room == DefaultRoom {
		return "rgb(0, 0, 0)"
	}
	var hash int32
	for _, r := range room {
		hash = int32(r) + (hash<<5 - hash)
	}
	abs := func(v int32) int32 {
		if v < 0 {
			return -v
		}
		return v
	}
	r := abs((hash&0xFF0000)>>16) % 105
	g := abs((hash&0x00FF00)>>8) % 105
	b := abs(hash&0x0000FF) % 105
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
