package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRoomName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World/Test", "hello_world÷test"},
		{"my room", "my_room"},
		{"a*b", "a×b"},
		{"UPPER", "upper"},
		{"with\ttab and\nnewline", "with_tab_and_newline"},
		{"emoji🙂drop", "emojidrop"},
		{"кириллица", "кириллица"},
		{"ひらがな", "ひらがな"},
		{"漢字", "漢字"},
		{"keep-these'?!&@~+%$#^=:;_", "keep-these'?!&@~+%$#^=:;_"},
		{"\"quotes\"dropped", "quotesdropped"},
		{"", ""},
		{"🙂🙂🙂", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SanitizeRoomName(c.in), "input %q", c.in)
	}
}

func TestSanitizeRoomNameIdempotent(t *testing.T) {
	inputs := []string{"Hello World/Test", "a*b c", "кириллица ひらがな", "x/y/z"}
	for _, in := range inputs {
		once := SanitizeRoomName(in)
		assert.Equal(t, once, SanitizeRoomName(once), "input %q", in)
	}
}

func TestSanitizeRoomNameTruncates(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := SanitizeRoomName(long)
	assert.Len(t, []rune(got), MaxRoomNameLength)

	// Truncation counts runes, not bytes.
	wide := strings.Repeat("漢", 150)
	got = SanitizeRoomName(wide)
	assert.Len(t, []rune(got), MaxRoomNameLength)
}

func TestRoomFromPath(t *testing.T) {
	assert.Equal(t, "main", RoomFromPath("/"))
	assert.Equal(t, "main", RoomFromPath(""))
	assert.Equal(t, "gophers", RoomFromPath("/t/gophers"))
	assert.Equal(t, "hello_world", RoomFromPath("/t/Hello World"))
	assert.Equal(t, "main", RoomFromPath("/t/🙂"))
	assert.Equal(t, "main", RoomFromPath("/something/else"))
}

func TestPathForRoom(t *testing.T) {
	assert.Equal(t, "/", PathForRoom("main"))
	assert.Equal(t, "/t/gophers", PathForRoom("gophers"))

	// Round trip through the location layer is stable.
	for _, room := range []string{"main", "gophers", "hello_world÷test"} {
		assert.Equal(t, room, RoomFromPath(PathForRoom(room)))
	}
}

func TestRoomColor(t *testing.T) {
	assert.Equal(t, "rgb(0, 0, 0)", RoomColor("main"))

	got := RoomColor("gophers")
	assert.Regexp(t, `^rgb\(\d+, \d+, \d+\)$`, got)
	assert.Equal(t, got, RoomColor("gophers"), "color must be deterministic")
	assert.NotEqual(t, RoomColor("gophers"), RoomColor("plumbers"))
}
