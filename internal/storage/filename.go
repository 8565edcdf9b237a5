package storage

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// IOFileName builds the file name of one participant's output. The
// extension of base is replaced by ext, a non-empty tag is appended to the
// stem and multi-participant runs get a ".<size>.<rank>" suffix with the
// rank zero-padded to the width of size.
//
//	IOFileName("out/nodes.csv", "csv", "", 0, 1)  // out/nodes.csv
//	IOFileName("nodes", "csv", "impact", 3, 12)   // nodes-impact.csv.12.03
func IOFileName(base, ext, tag string, rank, size int) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if tag != "" {
		name += "-" + tag
	}
	if ext != "" {
		name += "." + ext
	}
	if size > 1 {
		width := len(strconv.Itoa(size))
		name += fmt.Sprintf(".%d.%0*d", size, width, rank)
	}
	return name
}
