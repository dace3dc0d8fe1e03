package parser_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leapstack-labs/catalogsql/pkg/parser"
	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExternal(t *testing.T, sql string) *parser.CreateExternalTable {
	t.Helper()
	stmts, err := parser.Parse(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	ext, ok := stmts[0].(*parser.CreateExternalTable)
	require.True(t, ok, "expected *CreateExternalTable, got %T", stmts[0])
	return ext
}

func requireParserError(t *testing.T, err error, kind parser.ErrorKind) *parser.ParserError {
	t.Helper()
	require.Error(t, err)
	var pe *parser.ParserError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, kind, pe.Kind, "error: %v", err)
	return pe
}

// ---------- CREATE EXTERNAL TABLE ----------

func TestCreateExternalTable(t *testing.T) {
	ext := parseExternal(t, "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV LOCATION 'foo.csv'")

	assert.Equal(t, "t", ext.Name)
	require.Len(t, ext.Columns, 1)
	assert.Equal(t, "c1", ext.Columns[0].Name.Value)
	assert.Equal(t, "CSV", ext.FileType)
	assert.False(t, ext.HasHeader)
	assert.Equal(t, ',', ext.Delimiter)
	assert.Equal(t, "foo.csv", ext.Location)
	assert.Empty(t, ext.PartitionCols)
	assert.False(t, ext.IfNotExists)
	assert.Equal(t, parser.Uncompressed, ext.Compression)
	assert.Empty(t, ext.Options)
	assert.Equal(t, parser.CreateExternalTableKind, ext.Kind())
}

func TestCreateExternalTableClauses(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, ext *parser.CreateExternalTable)
	}{
		{
			name: "delimiter",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV DELIMITER '|' LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, '|', ext.Delimiter)
			},
		},
		{
			name: "header row",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV WITH HEADER ROW LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.True(t, ext.HasHeader)
			},
		},
		{
			name: "compression any case",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV COMPRESSION TYPE gzip LOCATION 'foo.csv.gz'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, parser.Gzip, ext.Compression)
			},
		},
		{
			name: "header row any case",
			sql:  "create external table t(c1 int) stored as csv with header row location 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.True(t, ext.HasHeader)
			},
		},
		{
			name: "partitions",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY (p1, p2) LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, []string{"p1", "p2"}, ext.PartitionCols)
			},
		},
		{
			name: "keyword partitions",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY (year, type, key) LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, []string{"year", "type", "key"}, ext.PartitionCols)
			},
		},
		{
			name: "partitions with trailing comma",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY (p1, p2,) LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, []string{"p1", "p2"}, ext.PartitionCols)
			},
		},
		{
			name: "empty partitions",
			sql:  "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY () LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Empty(t, ext.PartitionCols)
			},
		},
		{
			name: "options with trailing comma",
			sql:  "CREATE EXTERNAL TABLE t STORED AS x OPTIONS ('k1' 'v1', k2 v2, ) LOCATION 'blahblah'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, ext.Options)
				assert.Equal(t, "X", ext.FileType)
			},
		},
		{
			name: "if not exists and qualified name",
			sql:  "CREATE EXTERNAL TABLE IF NOT EXISTS shop.sales.orders STORED AS parquet LOCATION 's3://bucket/orders/'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.True(t, ext.IfNotExists)
				assert.Equal(t, "shop.sales.orders", ext.Name)
				assert.Equal(t, "PARQUET", ext.FileType)
				assert.Empty(t, ext.Columns)
			},
		},
		{
			name: "empty column list",
			sql:  "CREATE EXTERNAL TABLE t() STORED AS NDJSON LOCATION 'x.json'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.Empty(t, ext.Columns)
			},
		},
		{
			name: "columns with constraints and trailing comma",
			sql:  "CREATE EXTERNAL TABLE t(c1 int NOT NULL, c2 varchar(10), PRIMARY KEY (c1),) STORED AS CSV LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				require.Len(t, ext.Columns, 2)
				assert.Equal(t, "c2", ext.Columns[1].Name.Value)
			},
		},
		{
			name: "all clauses",
			sql: "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV WITH HEADER ROW DELIMITER ';' " +
				"COMPRESSION TYPE ZSTD PARTITIONED BY (p1) OPTIONS ('a' 'b') LOCATION 'foo.csv'",
			check: func(t *testing.T, ext *parser.CreateExternalTable) {
				assert.True(t, ext.HasHeader)
				assert.Equal(t, ';', ext.Delimiter)
				assert.Equal(t, parser.Zstd, ext.Compression)
				assert.Equal(t, []string{"p1"}, ext.PartitionCols)
				assert.Equal(t, map[string]string{"a": "b"}, ext.Options)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, parseExternal(t, tt.sql))
		})
	}
}

func TestCreateExternalTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		kind    parser.ErrorKind
		wantMsg string
	}{
		{
			name:    "unknown compression",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV COMPRESSION TYPE ZZZ LOCATION 'blahblah'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: Unsupported file compression type ZZZ",
		},
		{
			name:    "partial header clause",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV WITH HEADER LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected LOCATION, found WITH",
		},
		{
			name:    "partial partition clause",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected LOCATION, found PARTITIONED",
		},
		{
			name:    "partial compression clause",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV COMPRESSION LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected LOCATION, found COMPRESSION",
		},
		{
			name:    "option without value",
			sql:     "CREATE EXTERNAL TABLE t STORED AS x OPTIONS ('k1' 'v1', k2 v2, k3) LOCATION 'blahblah'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: expected literal string, found )",
		},
		{
			name:    "option missing separator",
			sql:     "CREATE EXTERNAL TABLE t STORED AS x OPTIONS ('k1' 'v1' 'k2' 'v2') LOCATION 'blahblah'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: expected ',' or ')' after option definition, found 'k2'",
		},
		{
			name:    "typed partition",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY (p1 int) LOCATION 'foo.csv'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: expected ',' or ')' after partition definition, found int",
		},
		{
			name:    "partition name",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV PARTITIONED BY ('p1') LOCATION 'foo.csv'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: expected partition name, found 'p1'",
		},
		{
			name:    "delimiter too long",
			sql:     "CREATE EXTERNAL TABLE t(c1 int) STORED AS CSV DELIMITER '||' LOCATION 'foo.csv'",
			kind:    parser.KindInvalidClause,
			wantMsg: "sql parser error: delimiter must be a single character, found '||'",
		},
		{
			name:    "file format not a word",
			sql:     "CREATE EXTERNAL TABLE t STORED AS 'csv' LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected one of PARQUET, NDJSON, AVRO or CSV, found 'csv'",
		},
		{
			name:    "compression not a word",
			sql:     "CREATE EXTERNAL TABLE t STORED AS CSV COMPRESSION TYPE 'gzip' LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected one of GZIP, BZIP2, XZ or ZSTD, found 'gzip'",
		},
		{
			name:    "missing stored as",
			sql:     "CREATE EXTERNAL TABLE t LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected STORED, found LOCATION",
		},
		{
			name:    "missing column separator",
			sql:     "CREATE EXTERNAL TABLE t(c1 int c2 int) STORED AS CSV LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected ',' or ')' after column definition, found c2",
		},
		{
			name:    "bad column list",
			sql:     "CREATE EXTERNAL TABLE t(, c1 int) STORED AS CSV LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected column name or constraint definition, found ,",
		},
		{
			name:    "clauses out of order",
			sql:     "CREATE EXTERNAL TABLE t STORED AS CSV DELIMITER '|' WITH HEADER ROW LOCATION 'foo.csv'",
			kind:    parser.KindSyntax,
			wantMsg: "sql parser error: expected LOCATION, found WITH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql)
			pe := requireParserError(t, err, tt.kind)
			assert.Equal(t, fmt.Sprintf("%s at line 1, column %d", tt.wantMsg, pe.Pos.Column), err.Error())
		})
	}
}

func TestCreateExternalTableString(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{
			sql:  "create external table t(c1 int) stored as csv location 'foo.csv'",
			want: "CREATE EXTERNAL TABLE t (c1 INT) STORED AS CSV LOCATION 'foo.csv'",
		},
		{
			sql: "CREATE EXTERNAL TABLE IF NOT EXISTS s.t STORED AS CSV WITH HEADER ROW DELIMITER '|' " +
				"COMPRESSION TYPE bzip2 PARTITIONED BY (b, a) OPTIONS ('z' '1', 'a' 'it''s') LOCATION 'x'",
			want: "CREATE EXTERNAL TABLE IF NOT EXISTS s.t STORED AS CSV WITH HEADER ROW DELIMITER '|' " +
				"COMPRESSION TYPE BZIP2 PARTITIONED BY (b, a) OPTIONS ('a' 'it''s', 'z' '1') LOCATION 'x'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			ext := parseExternal(t, tt.sql)
			assert.Equal(t, tt.want, ext.String())

			again := parseExternal(t, ext.String())
			assert.Equal(t, ext, again)
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		tag  string
		want parser.CompressionType
	}{
		{"UNCOMPRESSED", parser.Uncompressed},
		{"gzip", parser.Gzip},
		{"Bzip2", parser.Bzip2},
		{"xz", parser.Xz},
		{"ZSTD", parser.Zstd},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := parser.ParseCompressionType(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parser.ParseCompressionType("lz4")
	pe := requireParserError(t, err, parser.KindInvalidClause)
	assert.Equal(t, "Unsupported file compression type LZ4", pe.Message)
}

// ---------- DESCRIBE ----------

func TestDescribe(t *testing.T) {
	tests := []struct {
		sql      string
		wantName string
		wantMeta string
	}{
		{"DESCRIBE t", "DESCRIBE t", "sdf.public.t"},
		{"DESCRIBE TABLE s.t", "DESCRIBE s.t", "sdf.s.t"},
		{"describe c.s.t", "DESCRIBE c.s.t", "c.s.t"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			parsed, err := parser.ParseWithScope(tt.sql, "", "", "", "")
			require.NoError(t, err)
			require.Len(t, parsed, 1)

			desc, ok := parsed[0].Statement.(*parser.DescribeTable)
			require.True(t, ok)
			assert.Equal(t, parser.DescribeTableKind, desc.Kind())
			assert.Equal(t, tt.wantName, desc.String())
			assert.Equal(t, tt.wantMeta, parsed[0].Meta.QualifiedName())
		})
	}
}

func TestDescribeUsesScope(t *testing.T) {
	parsed, err := parser.ParseWithScope("DESCRIBE orders", "", "shop", "sales", "")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, parser.StatementMeta{Catalog: "shop", Schema: "sales", Table: "orders", Line: 1}, parsed[0].Meta)
}

func TestNameArity(t *testing.T) {
	for _, sql := range []string{
		"DESCRIBE a.b.c.d",
		"CREATE TABLE a.b.c.d (x int)",
		"CREATE EXTERNAL TABLE a.b.c.d STORED AS CSV LOCATION 'x'",
		"CREATE SCHEMA a.b.c",
	} {
		t.Run(sql, func(t *testing.T) {
			_, err := parser.Parse(sql)
			requireParserError(t, err, parser.KindUnsupportedArity)
			assert.ErrorIs(t, err, parser.ErrUnsupportedArity)
		})
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		parts []string
		want  parser.StatementMeta
	}{
		{[]string{"t"}, parser.StatementMeta{Catalog: "c", Schema: "s", Table: "t"}},
		{[]string{"x", "t"}, parser.StatementMeta{Catalog: "c", Schema: "x", Table: "t"}},
		{[]string{"y", "x", "t"}, parser.StatementMeta{Catalog: "y", Schema: "x", Table: "t"}},
	}
	for _, tt := range tests {
		got, err := parser.ResolveName(tt.parts, "c", "s")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := parser.ResolveName(nil, "c", "s")
	assert.ErrorIs(t, err, parser.ErrUnsupportedArity)
}

// ---------- Dispatcher ----------

func TestParseDelimiters(t *testing.T) {
	stmts, err := parser.Parse(";;DESCRIBE a;;; DESCRIBE b;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "DESCRIBE a", stmts[0].String())
	assert.Equal(t, "DESCRIBE b", stmts[1].String())

	stmts, err = parser.Parse("  ;; ")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestParseDispatcherErrors(t *testing.T) {
	tests := []struct {
		sql     string
		kind    parser.ErrorKind
		wantMsg string
	}{
		{"DESCRIBE a b", parser.KindSyntax, "sql parser error: expected end of statement, found b"},
		{"123", parser.KindSyntax, "sql parser error: expected end of statement, found 123"},
		{"SELECT 'abc", parser.KindTokenizer, "sql parser error: unterminated string literal"},
		{"FROBNICATE x", parser.KindSyntax, "sql parser error: expected a SQL statement, found FROBNICATE"},
		{"USE 'x'", parser.KindSyntax, "sql parser error: expected object identifier, found 'x'"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, err := parser.Parse(tt.sql)
			requireParserError(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestStandardStatements(t *testing.T) {
	stmts, err := parser.Parse("CREATE TABLE t (a INT); INSERT INTO t VALUES (1); SELECT * FROM t")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	for _, stmt := range stmts {
		assert.Equal(t, parser.StandardKind, stmt.Kind())
	}
	std := stmts[0].(*parser.StandardStatement)
	_, ok := std.Node.(*sqlparser.CreateTable)
	assert.True(t, ok)
	assert.Equal(t, "SELECT * FROM t", stmts[2].String())
}

func TestStatementMeta(t *testing.T) {
	sql := "CREATE TABLE t (a int);\n" +
		"CREATE VIEW other.v AS SELECT 1;\n" +
		"CREATE DATABASE c2;\n" +
		"CREATE SCHEMA s2;\n" +
		"CREATE SCHEMA c3.s3;\n" +
		"\n" +
		"INSERT INTO t VALUES (1)"

	parsed, err := parser.ParseWithScope(sql, "", "shop", "sales", "")
	require.NoError(t, err)
	require.Len(t, parsed, 6)

	want := []parser.StatementMeta{
		{Catalog: "shop", Schema: "sales", Table: "t", Line: 1},
		{Catalog: "shop", Schema: "other", Table: "v", Line: 2},
		{Catalog: "c2", Line: 3},
		{Catalog: "shop", Schema: "s2", Line: 4},
		{Catalog: "c3", Schema: "s3", Line: 5},
		{Catalog: "shop", Schema: "sales", Line: 7},
	}
	for i, w := range want {
		assert.Equal(t, w, parsed[i].Meta, "statement %d", i)
	}
}

func TestStatementMetaHelpers(t *testing.T) {
	m := parser.StatementMeta{Catalog: "c", Schema: "s", Table: "t", Filename: "c/s.sql", Line: 3}
	assert.Equal(t, "c/s.sql:3:c.s.t", m.String())
	assert.Equal(t, "c.s.t", m.QualifiedName())
	assert.Equal(t, "c/s.sql", m.SchemaFilename())

	m.Table = ""
	assert.Equal(t, "c/s.sql:3:c.s", m.String())
	assert.Equal(t, "c.s", m.QualifiedName())
}

func TestFileQueryBecomesTable(t *testing.T) {
	parsed, err := parser.ParseWithScope("-- orders\nSELECT * FROM raw_orders", "shop/sales/orders.sql", "shop", "sales", "orders")
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	assert.Equal(t, "CREATE TABLE shop.sales.orders AS SELECT * FROM raw_orders", parsed[0].Statement.String())
	assert.Equal(t, parser.StatementMeta{
		Catalog: "shop", Schema: "sales", Table: "orders", Filename: "shop/sales/orders.sql", Line: 2,
	}, parsed[0].Meta)

	node := parsed[0].Statement.(*parser.StandardStatement).Node.(*sqlparser.CreateTable)
	require.NotNil(t, node.Query)
	assert.Equal(t, []string{"raw_orders"}, node.Query.Tables[0].Parts())
}

func TestQueryWithoutFileStaysQuery(t *testing.T) {
	parsed, err := parser.ParseWithScope("SELECT 1", "", "shop", "sales", "")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	_, ok := parsed[0].Statement.(*parser.StandardStatement).Node.(*sqlparser.Query)
	assert.True(t, ok)
}

func TestScopedErrorNamesFile(t *testing.T) {
	_, err := parser.ParseWithScope("DESCRIBE", "a.sql", "", "", "")
	require.Error(t, err)

	var fe *parser.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "a.sql", fe.Filename)

	var pe *parser.ParserError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Pos.Line)
	assert.Equal(t, fmt.Sprintf("'a.sql': sql parser error: expected identifier, found EOF at line 1, column %d", pe.Pos.Column), err.Error())
}

func TestParserErrorPosition(t *testing.T) {
	_, err := parser.Parse("SELECT 1;\nCREATE EXTERNAL TABLE t STORED AS CSV\n  COMPRESSION TYPE ZZZ LOCATION 'x'")
	pe := requireParserError(t, err, parser.KindInvalidClause)
	assert.Equal(t, 3, pe.Pos.Line)
	assert.Equal(t, 20, pe.Pos.Column)
	assert.Equal(t, "sql parser error: Unsupported file compression type ZZZ at line 3, column 20", err.Error())

	noPos := &parser.ParserError{Kind: parser.KindSyntax, Message: "boom"}
	assert.Equal(t, "sql parser error: boom", noPos.Error())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "missing file", parser.KindMissingFile.String())
	assert.Equal(t, "ErrorKind(42)", parser.ErrorKind(42).String())
	assert.True(t, errors.Is(&parser.FileError{Filename: "x", Err: parser.ErrUnsupportedArity}, parser.ErrUnsupportedArity))
}
