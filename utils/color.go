package utils

import "hash/fnv"

var palette = []string{
	"#e74c3c", "#e67e22", "#f1c40f", "#2ecc71", "#1abc9c",
	"#3498db", "#9b59b6", "#34495e", "#16a085", "#d35400",
	"#c0392b", "#8e44ad",
}

// ColorFor picks a stable presentation color for a username.
func ColorFor(username string) string {
	h := fnv.New32a()
	h.Write([]byte(username))
	return palette[h.Sum32()%uint32(len(palette))]
}
