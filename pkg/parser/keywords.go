package parser

import "github.com/leapstack-labs/catalogsql/pkg/token"

// Keywords of the statements this package adds to the generic grammar.
var (
	EXTERNAL    = token.Register("EXTERNAL")
	STORED      = token.Register("STORED")
	LOCATION    = token.Register("LOCATION")
	HEADER      = token.Register("HEADER")
	DELIMITER   = token.Register("DELIMITER")
	COMPRESSION = token.Register("COMPRESSION")
	PARTITIONED = token.Register("PARTITIONED")
	OPTIONS     = token.Register("OPTIONS")
	DESCRIBE    = token.Register("DESCRIBE")
	USE         = token.Register("USE")
)
