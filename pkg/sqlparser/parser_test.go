package sqlparser_test

import (
	"testing"

	"github.com/leapstack-labs/catalogsql/pkg/sqlparser"
	"github.com/leapstack-labs/catalogsql/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) sqlparser.Statement {
	t.Helper()
	stmts, err := sqlparser.Parse(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

// ---------- Cursor ----------

func TestCursor(t *testing.T) {
	p, err := sqlparser.NewParser("a b c")
	require.NoError(t, err)

	assert.Equal(t, "a", p.Peek().Literal)
	assert.Equal(t, "c", p.PeekN(2).Literal)
	assert.Equal(t, token.EOF, p.PeekN(10).Type)

	assert.Equal(t, "a", p.Next().Literal)
	assert.Equal(t, "b", p.Next().Literal)
	p.Prev()
	assert.Equal(t, "b", p.Peek().Literal)

	p.Next()
	p.Next()
	assert.Equal(t, token.EOF, p.Next().Type)
	assert.Equal(t, token.EOF, p.Next().Type, "Next keeps returning EOF")
}

func TestParseKeywordsAllOrNothing(t *testing.T) {
	p, err := sqlparser.NewParser("IF NOT foo")
	require.NoError(t, err)

	assert.False(t, p.ParseKeywords(token.IF, token.NOT, token.EXISTS))
	assert.Equal(t, token.IF, p.Peek().Type, "nothing consumed on partial match")

	assert.True(t, p.ParseKeywords(token.IF, token.NOT))
	assert.Equal(t, "foo", p.Peek().Literal)
}

func TestExpectKeyword(t *testing.T) {
	p, err := sqlparser.NewParser("TABLE x")
	require.NoError(t, err)

	err = p.ExpectKeyword(token.VIEW)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected VIEW, found TABLE")

	require.NoError(t, p.ExpectKeyword(token.TABLE))
	assert.Equal(t, "x", p.Peek().Literal)
}

func TestParseObjectName(t *testing.T) {
	p, err := sqlparser.NewParser(`cat."My Schema".tbl rest`)
	require.NoError(t, err)

	name, err := p.ParseObjectName()
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "My Schema", "tbl"}, name.Parts())
	assert.Equal(t, `cat."My Schema".tbl`, name.String())
	assert.Equal(t, "rest", p.Peek().Literal)
}

func TestParseLiteralString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr string
	}{
		{"'quoted value'", "quoted value", ""},
		{"bare", "bare", ""},
		{`"double"`, "double", ""},
		{"TABLE", "", "expected literal string, found TABLE"},
		{"42", "", "expected literal string, found 42"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := sqlparser.NewParser(tt.input)
			require.NoError(t, err)

			got, err := p.ParseLiteralString()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"int", "INT"},
		{"varchar(20)", "VARCHAR(20)"},
		{"DECIMAL(10,2)", "DECIMAL(10, 2)"},
		{"double precision", "DOUBLE PRECISION"},
		{"character varying(5)", "CHARACTER VARYING(5)"},
		{"timestamp with time zone", "TIMESTAMP WITH TIME ZONE"},
		{"time without time zone", "TIME WITHOUT TIME ZONE"},
		{"int[]", "INT[]"},
		{"struct(a int, b varchar)", "STRUCT(a INT, b VARCHAR)"},
		{"map(varchar, int)", "MAP(VARCHAR, INT)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := sqlparser.NewParser(tt.input)
			require.NoError(t, err)

			dt, err := p.ParseDataType()
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt.String())
			assert.Equal(t, token.EOF, p.Peek().Type)
		})
	}
}

func TestParseDataTypeErrors(t *testing.T) {
	p, err := sqlparser.NewParser(")")
	require.NoError(t, err)
	_, err = p.ParseDataType()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected data type, found )")

	p, err = sqlparser.NewParser("decimal(10 2)")
	require.NoError(t, err)
	_, err = p.ParseDataType()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected ',' or ')' after type parameter, found 2")
}

// ---------- CREATE TABLE ----------

func TestCreateTable(t *testing.T) {
	stmt := parseOne(t, "CREATE TABLE IF NOT EXISTS s.t (id INT NOT NULL PRIMARY KEY, name VARCHAR(20) DEFAULT 'x', PRIMARY KEY (id))")

	ct, ok := stmt.(*sqlparser.CreateTable)
	require.True(t, ok, "expected *CreateTable, got %T", stmt)
	assert.True(t, ct.IfNotExists)
	assert.Equal(t, []string{"s", "t"}, ct.Name.Parts())

	require.Len(t, ct.Columns, 2)
	assert.Equal(t, "id", ct.Columns[0].Name.Value)
	assert.Equal(t, "INT", ct.Columns[0].DataType.Name)
	require.Len(t, ct.Columns[0].Options, 2)
	assert.Equal(t, sqlparser.OptionNotNull, ct.Columns[0].Options[0].Kind)
	assert.Equal(t, sqlparser.OptionPrimaryKey, ct.Columns[0].Options[1].Kind)

	require.Len(t, ct.Columns[1].Options, 1)
	assert.Equal(t, sqlparser.OptionDefault, ct.Columns[1].Options[0].Kind)
	assert.Equal(t, "'x'", ct.Columns[1].Options[0].Expr)

	require.Len(t, ct.Constraints, 1)
	assert.Equal(t, sqlparser.ConstraintPrimaryKey, ct.Constraints[0].Kind)

	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS s.t (id INT NOT NULL PRIMARY KEY, name VARCHAR(20) DEFAULT 'x', PRIMARY KEY (id))",
		ct.String())
}

func TestCreateTableAsQuery(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantQuery string
	}{
		{"as select", "CREATE OR REPLACE TABLE t AS SELECT a FROM b", "SELECT a FROM b"},
		{"parenthesized", "CREATE TABLE t AS (SELECT 1)", "(SELECT 1)"},
		{"bare parenthesized", "CREATE TABLE t (SELECT 1)", "(SELECT 1)"},
		{"with cte", "CREATE TEMP TABLE t AS WITH x AS (SELECT 1) SELECT * FROM x", "WITH x AS (SELECT 1) SELECT * FROM x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ok := parseOne(t, tt.sql).(*sqlparser.CreateTable)
			require.True(t, ok)
			require.NotNil(t, ct.Query)
			assert.Equal(t, tt.wantQuery, ct.Query.Text)
		})
	}
}

func TestCreateTableColumnOptions(t *testing.T) {
	sql := `CREATE TABLE t (
		a INT CONSTRAINT a_pos CHECK (a > 0),
		b INT REFERENCES other (id),
		c VARCHAR COLLATE nocase COMMENT 'the c',
		d INT DEFAULT NULL UNIQUE,
		e INT DEFAULT (1 + 2) NOT NULL,
		CONSTRAINT fk FOREIGN KEY (b) REFERENCES other (id),
		UNIQUE (c, d),
		CHECK (a < 100),
	)`
	ct, ok := parseOne(t, sql).(*sqlparser.CreateTable)
	require.True(t, ok)
	require.Len(t, ct.Columns, 5)
	require.Len(t, ct.Constraints, 3)

	a := ct.Columns[0].Options[0]
	assert.Equal(t, "a_pos", a.Name.Value)
	assert.Equal(t, sqlparser.OptionCheck, a.Kind)
	assert.Equal(t, "a > 0", a.Expr)

	b := ct.Columns[1].Options[0]
	assert.Equal(t, sqlparser.OptionReferences, b.Kind)
	assert.Equal(t, "other", b.RefTable.String())

	c := ct.Columns[2].Options
	require.Len(t, c, 2)
	assert.Equal(t, "COLLATE nocase", c[0].String())
	assert.Equal(t, "COMMENT 'the c'", c[1].String())

	d := ct.Columns[3].Options
	require.Len(t, d, 2)
	assert.Equal(t, "NULL", d[0].Expr)
	assert.Equal(t, sqlparser.OptionUnique, d[1].Kind)

	e := ct.Columns[4].Options
	require.Len(t, e, 2)
	assert.Equal(t, "(1 + 2)", e[0].Expr)
	assert.Equal(t, sqlparser.OptionNotNull, e[1].Kind)

	assert.Equal(t, "CONSTRAINT fk FOREIGN KEY (b) REFERENCES other (id)", ct.Constraints[0].String())
	assert.Equal(t, "UNIQUE (c, d)", ct.Constraints[1].String())
	assert.Equal(t, "CHECK (a < 100)", ct.Constraints[2].String())
}

func TestParseColumnsErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr string
	}{
		{"missing separator", "CREATE TABLE t (a INT b INT)", "expected ',' or ')' after column definition, found b"},
		{"not a column", "CREATE TABLE t (a INT, 42)", "expected column name or constraint definition, found 42"},
		{"dangling constraint name", "CREATE TABLE t (CONSTRAINT c)", "expected PRIMARY, UNIQUE, FOREIGN or CHECK, found )"},
		{"missing type", "CREATE TABLE t (a)", "expected data type, found )"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlparser.Parse(tt.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var parseErr *sqlparser.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseColumnsEmpty(t *testing.T) {
	ct, ok := parseOne(t, "CREATE TABLE t ()").(*sqlparser.CreateTable)
	require.True(t, ok)
	assert.Empty(t, ct.Columns)
	assert.Equal(t, "CREATE TABLE t", ct.String())
}

// ---------- Other CREATE / DROP / INSERT ----------

func TestCreateView(t *testing.T) {
	cv, ok := parseOne(t, "CREATE MATERIALIZED VIEW IF NOT EXISTS v (a, b) AS SELECT x, y FROM t").(*sqlparser.CreateView)
	require.True(t, ok)
	assert.True(t, cv.Materialized)
	assert.True(t, cv.IfNotExists)
	assert.Equal(t, "v", cv.Name.String())
	assert.Len(t, cv.Columns, 2)
	assert.Equal(t, "SELECT x, y FROM t", cv.Query.Text)
	assert.Equal(t, "CREATE MATERIALIZED VIEW IF NOT EXISTS v (a, b) AS SELECT x, y FROM t", cv.String())
}

func TestCreateDatabaseAndSchema(t *testing.T) {
	stmts, err := sqlparser.Parse("CREATE DATABASE c; CREATE SCHEMA IF NOT EXISTS c.s;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	db, ok := stmts[0].(*sqlparser.CreateDatabase)
	require.True(t, ok)
	assert.Equal(t, "CREATE DATABASE c", db.String())

	sc, ok := stmts[1].(*sqlparser.CreateSchema)
	require.True(t, ok)
	assert.True(t, sc.IfNotExists)
	assert.Equal(t, []string{"c", "s"}, sc.Name.Parts())
}

func TestCreateErrors(t *testing.T) {
	tests := []struct {
		sql     string
		wantErr string
	}{
		{"CREATE INDEX i ON t (a)", "expected TABLE, VIEW, DATABASE or SCHEMA after CREATE, found INDEX"},
		{"CREATE MATERIALIZED TABLE t", "expected VIEW after MATERIALIZED, found TABLE"},
		{"CREATE TEMP VIEW v AS SELECT 1", "expected TABLE after TEMPORARY, found VIEW"},
		{"CREATE VIEW v SELECT 1", "expected AS, found SELECT"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, err := sqlparser.Parse(tt.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDrop(t *testing.T) {
	d, ok := parseOne(t, "DROP TABLE IF EXISTS a, s.b CASCADE").(*sqlparser.Drop)
	require.True(t, ok)
	assert.Equal(t, "TABLE", d.Object)
	assert.True(t, d.IfExists)
	assert.Len(t, d.Names, 2)
	assert.True(t, d.Cascade)
	assert.Equal(t, "DROP TABLE IF EXISTS a, s.b CASCADE", d.String())

	d, ok = parseOne(t, "drop materialized view v restrict").(*sqlparser.Drop)
	require.True(t, ok)
	assert.Equal(t, "DROP MATERIALIZED VIEW v RESTRICT", d.String())
}

func TestInsert(t *testing.T) {
	ins, ok := parseOne(t, "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')").(*sqlparser.Insert)
	require.True(t, ok)
	assert.Equal(t, "t", ins.Table.String())
	assert.Len(t, ins.Columns, 2)
	assert.Equal(t, "VALUES (1, 'x'), (2, 'y')", ins.Source.Text)

	ins, ok = parseOne(t, "INSERT INTO t (SELECT * FROM u)").(*sqlparser.Insert)
	require.True(t, ok)
	assert.Empty(t, ins.Columns)
	assert.Equal(t, "(SELECT * FROM u)", ins.Source.Text)
}

// ---------- Queries ----------

func TestQueryTables(t *testing.T) {
	tests := []struct {
		sql  string
		want []string
	}{
		{"SELECT * FROM t", []string{"t"}},
		{"SELECT * FROM c.s.t AS x JOIN u y ON x.id = y.id", []string{"c.s.t", "u"}},
		{"SELECT * FROM a, b, A", []string{"a", "b"}},
		{"SELECT * FROM (SELECT * FROM inner_t) sub", []string{"inner_t"}},
		{"SELECT * FROM read_csv('x.csv')", nil},
		{"SELECT 1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			q, ok := parseOne(t, tt.sql).(*sqlparser.Query)
			require.True(t, ok)
			var got []string
			for _, name := range q.Tables {
				got = append(got, name.String())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.sql, q.String())
		})
	}
}

func TestQueryStopsAtDelimiter(t *testing.T) {
	stmts, err := sqlparser.Parse("SELECT 'a;b' FROM t; SELECT 2")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 'a;b' FROM t", stmts[0].String())
	assert.Equal(t, "SELECT 2", stmts[1].String())
}

func TestQueryUnbalanced(t *testing.T) {
	_, err := sqlparser.Parse("SELECT (1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), sqlparser.ErrUnbalancedParens)
}

// ---------- Raw and dispatch ----------

func TestRawStatements(t *testing.T) {
	stmts, err := sqlparser.Parse("update t set a = 1 where b = 'x;y'; SHOW TABLES; BEGIN")
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	raw, ok := stmts[0].(*sqlparser.Raw)
	require.True(t, ok)
	assert.Equal(t, "UPDATE", raw.Verb)
	assert.Equal(t, "update t set a = 1 where b = 'x;y'", raw.Text)

	assert.Equal(t, "SHOW", stmts[1].(*sqlparser.Raw).Verb)
	assert.Equal(t, "BEGIN", stmts[2].(*sqlparser.Raw).Verb)
}

func TestParseDelimiters(t *testing.T) {
	stmts, err := sqlparser.Parse(";; SELECT 1;;; SELECT 2 ;")
	require.NoError(t, err)
	assert.Len(t, stmts, 2)

	stmts, err = sqlparser.Parse("")
	require.NoError(t, err)
	assert.Empty(t, stmts)

	_, err = sqlparser.Parse("CREATE TABLE t (a INT) garbage")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected end of statement, found garbage")
}

func TestParseUnknownStatement(t *testing.T) {
	_, err := sqlparser.Parse("FROBNICATE everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a SQL statement, found FROBNICATE")
}

func TestStatementPositions(t *testing.T) {
	stmts, err := sqlparser.Parse("SELECT 1;\n\nCREATE DATABASE d;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, 1, stmts[0].StartPos().Line)
	assert.Equal(t, 3, stmts[1].StartPos().Line)
}

func TestParseLexError(t *testing.T) {
	_, err := sqlparser.Parse("SELECT 'oops")
	require.Error(t, err)

	var lexErr *sqlparser.LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 8, lexErr.Pos.Column)
}
