package utils

import "hash/fnv"

// cursorPalette mirrors the color set the editor assigns to remote cursors.
var cursorPalette = []string{
	"#2563eb",
	"#9333ea",
	"#16a34a",
	"#db2777",
	"#eab308",
	"#dc2626",
	"#4f46e5",
	"#0d9488",
	"#ea580c",
}

// ColorForUser deterministically maps a user name to a palette color so every
// participant renders the same color for the same peer.
func ColorForUser(userName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userName))
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}
