package parser

import (
	"fmt"
	"strings"
)

// CompressionType is the compression of the files behind an external table.
type CompressionType int

// Compression types.
const (
	Uncompressed CompressionType = iota
	Gzip
	Bzip2
	Xz
	Zstd
)

var compressionNames = map[CompressionType]string{
	Uncompressed: "UNCOMPRESSED",
	Gzip:         "GZIP",
	Bzip2:        "BZIP2",
	Xz:           "XZ",
	Zstd:         "ZSTD",
}

func (c CompressionType) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CompressionType(%d)", int(c))
}

// ParseCompressionType maps a compression tag, in any letter case, to its
// CompressionType.
func ParseCompressionType(tag string) (CompressionType, error) {
	upper := strings.ToUpper(tag)
	for c, name := range compressionNames {
		if name == upper {
			return c, nil
		}
	}
	return Uncompressed, &ParserError{
		Kind:    KindInvalidClause,
		Message: fmt.Sprintf(ErrUnsupportedCompress, upper),
	}
}
