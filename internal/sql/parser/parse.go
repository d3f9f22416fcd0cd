package parser

import (
	"fmt"
	"strconv"

	"github.com/lettydb/lettydb/internal/catalog"
	"github.com/lettydb/lettydb/internal/sql/lexer"
)

// ParseError reports the first syntax error the parser hits. No partial AST
// is returned alongside it.
type ParseError struct {
	Message string
	Token   string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Message
	}
	return fmt.Sprintf("%s Got token with text: %q", e.Message, e.Token)
}

// defaultVarcharLength applies when VARCHAR is declared without a length.
const defaultVarcharLength = 255

// Parser is a recursive-descent parser over a token vector. It holds a
// cursor, never backtracks, and stops at the first error.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse tokenizes sql and parses the single statement it contains.
func Parse(sql string) (Statement, error) {
	return NewParser(lexer.NewLexer(sql).Tokenize()).Parse()
}

// Parse dispatches on the first token. A trailing semicolon is optional;
// anything after the statement is an error.
func (p *Parser) Parse() (Statement, error) {
	var stmt Statement
	var err error

	switch p.peek().Type {
	case lexer.Select:
		stmt, err = p.parseSelect()
	case lexer.Insert:
		stmt, err = p.parseInsert()
	case lexer.Update:
		stmt, err = p.parseUpdate()
	case lexer.Delete:
		stmt, err = p.parseDelete()
	case lexer.Create:
		stmt, err = p.parseCreate()
	case lexer.Drop:
		stmt, err = p.parseDrop()
	default:
		return nil, &ParseError{Message: "Unsupported statement type.", Token: p.peek().Text}
	}
	if err != nil {
		return nil, err
	}

	if p.match(lexer.Semicolon) {
		p.advance()
	}
	if !p.match(lexer.EofFile) {
		return nil, &ParseError{Message: "Unexpected input after statement.", Token: p.peek().Text}
	}
	return stmt, nil
}

// ----- statement parsers -----

func (p *Parser) parseSelect() (Statement, error) {
	stmt := &SelectStmt{}
	p.advance() // SELECT

	if p.match(lexer.Star) {
		p.advance()
		stmt.SelectAll = true
	} else {
		cols, err := p.parseSelectColumns()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if _, err := p.ensure(lexer.From, "Expected FROM after select list."); err != nil {
		return nil, err
	}

	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	for p.match(lexer.Join) {
		p.advance()
		table, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.ensure(lexer.On, "Expected ON after JOIN table."); err != nil {
			return nil, err
		}
		on, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, JoinClause{Table: table, On: on})
	}

	if p.match(lexer.Where) {
		p.advance()
		where, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}

	if p.match(lexer.Group) {
		p.advance()
		if _, err := p.ensure(lexer.By, "Expected BY after GROUP."); err != nil {
			return nil, err
		}
		group, err := p.parseGroupBy()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = group
	}
	return stmt, nil
}

func (p *Parser) parseSelectColumns() ([]SelectColumn, error) {
	var cols []SelectColumn
	for {
		expr, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		col := SelectColumn{Expr: expr}
		if p.match(lexer.As) {
			p.advance()
			alias, err := p.ensure(lexer.Identifier, "Expected alias name.")
			if err != nil {
				return nil, err
			}
			col.Alias = alias.Text
		}
		cols = append(cols, col)

		if !p.match(lexer.Comma) {
			return cols, nil
		}
		p.advance()
	}
}

// parseColumnRef parses IDENT or IDENT.IDENT.
func (p *Parser) parseColumnRef() (Expression, error) {
	name, err := p.ensure(lexer.Identifier, "Expected identifier.")
	if err != nil {
		return nil, err
	}
	if p.match(lexer.Dot) {
		p.advance()
		member, err := p.ensure(lexer.Identifier, "Expected column name after '.'")
		if err != nil {
			return nil, err
		}
		return &QualifiedIdentifierExpr{Qualifier: name.Text, Name: member.Text}, nil
	}
	return &IdentifierExpr{Name: name.Text}, nil
}

// parseTableRef parses IDENT with an optional explicit or implicit alias.
func (p *Parser) parseTableRef() (TableRef, error) {
	name, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return TableRef{}, err
	}
	ref := TableRef{Name: name.Text}

	if p.match(lexer.As) {
		p.advance()
		alias, err := p.ensure(lexer.Identifier, "Expected alias for table.")
		if err != nil {
			return TableRef{}, err
		}
		ref.Alias = alias.Text
	} else if p.match(lexer.Identifier) {
		ref.Alias = p.advance().Text
	}
	return ref, nil
}

func (p *Parser) parseGroupBy() (*GroupByClause, error) {
	clause := &GroupByClause{}
	for {
		expr, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		clause.Exprs = append(clause.Exprs, expr)
		if !p.match(lexer.Comma) {
			break
		}
		p.advance()
	}

	if p.match(lexer.Having) {
		p.advance()
		having, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		clause.Having = having
	}
	return clause, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	p.advance() // INSERT
	if _, err := p.ensure(lexer.Into, "Expected INTO after INSERT."); err != nil {
		return nil, err
	}
	name, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{TableName: name.Text}

	if p.match(lexer.Lparen) {
		p.advance()
		for {
			col, err := p.ensure(lexer.Identifier, "Expected column name.")
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col.Text)
			if !p.match(lexer.Comma) {
				break
			}
			p.advance()
		}
		if _, err := p.ensure(lexer.Rparen, "Expected ')' after column list."); err != nil {
			return nil, err
		}
	}

	if _, err := p.ensure(lexer.Values, "Expected VALUES."); err != nil {
		return nil, err
	}

	for {
		row, err := p.parseValueTuple()
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if !p.match(lexer.Comma) {
			return stmt, nil
		}
		p.advance()
	}
}

func (p *Parser) parseValueTuple() ([]Expression, error) {
	if _, err := p.ensure(lexer.Lparen, "Expected '(' before value list."); err != nil {
		return nil, err
	}
	var row []Expression
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		row = append(row, lit)
		if !p.match(lexer.Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.ensure(lexer.Rparen, "Expected ')' after value list."); err != nil {
		return nil, err
	}
	return row, nil
}

func (p *Parser) parseUpdate() (Statement, error) {
	p.advance() // UPDATE
	name, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.ensure(lexer.Set, "Expected SET."); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{TableName: name.Text}
	for {
		col, err := p.ensure(lexer.Identifier, "Expected column name in assignment.")
		if err != nil {
			return nil, err
		}
		if _, err := p.ensure(lexer.Eq, "Expected '=' in assignment."); err != nil {
			return nil, err
		}
		value, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col.Text, Value: value})
		if !p.match(lexer.Comma) {
			break
		}
		p.advance()
	}

	if p.match(lexer.Where) {
		p.advance()
		where, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	p.advance() // DELETE
	if _, err := p.ensure(lexer.From, "Expected FROM after DELETE."); err != nil {
		return nil, err
	}
	name, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return nil, err
	}

	stmt := &DeleteStmt{TableName: name.Text}
	if p.match(lexer.Where) {
		p.advance()
		where, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = where
	}
	return stmt, nil
}

func (p *Parser) parseCreate() (Statement, error) {
	p.advance() // CREATE
	switch p.peek().Type {
	case lexer.Table:
		return p.parseCreateTable()
	case lexer.Index:
		return p.parseCreateIndex()
	default:
		return nil, &ParseError{Message: "Expected TABLE or INDEX after CREATE.", Token: p.peek().Text}
	}
}

func (p *Parser) parseCreateTable() (Statement, error) {
	p.advance() // TABLE
	name, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.ensure(lexer.Lparen, "Expected '(' after table name."); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{TableName: name.Text}
	for {
		if p.match(lexer.Primary) {
			p.advance()
			if _, err := p.ensure(lexer.Key, "Expected KEY after PRIMARY."); err != nil {
				return nil, err
			}
			if _, err := p.ensure(lexer.Lparen, "Expected '(' after PRIMARY KEY."); err != nil {
				return nil, err
			}
			for {
				col, err := p.ensure(lexer.Identifier, "Expected column name in PRIMARY KEY.")
				if err != nil {
					return nil, err
				}
				stmt.PrimaryKey = append(stmt.PrimaryKey, col.Text)
				if !p.match(lexer.Comma) {
					break
				}
				p.advance()
			}
			if _, err := p.ensure(lexer.Rparen, "Expected ')' after PRIMARY KEY columns."); err != nil {
				return nil, err
			}
		} else {
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			if col.PrimaryKey {
				stmt.PrimaryKey = append(stmt.PrimaryKey, col.Name)
			}
			stmt.Columns = append(stmt.Columns, col)
		}

		if !p.match(lexer.Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.ensure(lexer.Rparen, "Expected ')' after column definitions."); err != nil {
		return nil, err
	}
	if len(stmt.Columns) == 0 {
		return nil, &ParseError{Message: "Expected at least one column definition.", Token: name.Text}
	}
	return stmt, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.ensure(lexer.Identifier, "Expected column name.")
	if err != nil {
		return ColumnDef{}, err
	}

	def := ColumnDef{Name: name.Text}
	switch p.peek().Type {
	case lexer.Int:
		def.Type = catalog.Integer
		def.Length = 4
		p.advance()
	case lexer.Float:
		def.Type = catalog.Double
		def.Length = 8
		p.advance()
	case lexer.Bool:
		def.Type = catalog.Boolean
		def.Length = 1
		p.advance()
	case lexer.Date:
		def.Type = catalog.Date
		def.Length = 4
		p.advance()
	case lexer.Timestamp:
		def.Type = catalog.Timestamp
		def.Length = 8
		p.advance()
	case lexer.Varchar:
		p.advance()
		def.Type = catalog.Varchar
		def.Length = defaultVarcharLength
		if p.match(lexer.Lparen) {
			p.advance()
			lenTok, err := p.ensure(lexer.IntLiteral, "Expected length in VARCHAR(n).")
			if err != nil {
				return ColumnDef{}, err
			}
			n, convErr := strconv.ParseUint(lenTok.Text, 10, 16)
			if convErr != nil {
				return ColumnDef{}, &ParseError{Message: "Invalid VARCHAR length.", Token: lenTok.Text}
			}
			def.Length = uint16(n)
			if _, err := p.ensure(lexer.Rparen, "Expected ')' after VARCHAR length."); err != nil {
				return ColumnDef{}, err
			}
		}
	default:
		return ColumnDef{}, &ParseError{Message: "Expected column type.", Token: p.peek().Text}
	}

	if p.match(lexer.Primary) {
		p.advance()
		if _, err := p.ensure(lexer.Key, "Expected KEY after PRIMARY."); err != nil {
			return ColumnDef{}, err
		}
		def.PrimaryKey = true
	}
	return def, nil
}

func (p *Parser) parseCreateIndex() (Statement, error) {
	p.advance() // INDEX
	indexName, err := p.ensure(lexer.Identifier, "Expected index name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.ensure(lexer.On, "Expected ON after index name."); err != nil {
		return nil, err
	}
	tableName, err := p.ensure(lexer.Identifier, "Expected table name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.ensure(lexer.Lparen, "Expected '(' after table name."); err != nil {
		return nil, err
	}

	stmt := &CreateIndexStmt{IndexName: indexName.Text, TableName: tableName.Text}
	for {
		col, err := p.ensure(lexer.Identifier, "Expected column name.")
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col.Text)
		if !p.match(lexer.Comma) {
			break
		}
		p.advance()
	}
	if _, err := p.ensure(lexer.Rparen, "Expected ')' after index columns."); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseDrop() (Statement, error) {
	p.advance() // DROP
	if _, err := p.ensure(lexer.Table, "Expected TABLE after DROP."); err != nil {
		return nil, err
	}

	stmt := &DropTableStmt{}
	if p.match(lexer.If) {
		p.advance()
		if _, err := p.ensure(lexer.Exists, "Expected EXISTS after IF."); err != nil {
			return nil, err
		}
		stmt.IfExists = true
	}

	for {
		name, err := p.ensure(lexer.Identifier, "Expected table name.")
		if err != nil {
			return nil, err
		}
		stmt.TableNames = append(stmt.TableNames, name.Text)
		if !p.match(lexer.Comma) {
			return stmt, nil
		}
		p.advance()
	}
}

// ----- expressions -----

// parseLogicalExpr parses with operator precedence OR < AND < relational.
func (p *Parser) parseLogicalExpr() (Expression, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.Or) {
		op := p.advance().Text
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Expression, error) {
	left, err := p.parseRelationalExpr()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.And) {
		op := p.advance().Text
		right, err := p.parseRelationalExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseRelationalExpr() (Expression, error) {
	left, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for isRelational(p.peek().Type) {
		op := p.advance().Text
		right, err := p.parsePrimaryExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryOpExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func isRelational(t lexer.TokenType) bool {
	switch t {
	case lexer.Eq, lexer.Ne, lexer.Lt, lexer.Lte, lexer.Gt, lexer.Gte:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimaryExpr() (Expression, error) {
	switch p.peek().Type {
	case lexer.IntLiteral, lexer.FloatLiteral, lexer.StringLiteral,
		lexer.DateLiteral, lexer.TimestampLiteral, lexer.True, lexer.False, lexer.Null:
		return p.parseLiteral()

	case lexer.Identifier:
		return p.parseColumnRef()

	case lexer.Lparen:
		p.advance()
		expr, err := p.parseLogicalExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.ensure(lexer.Rparen, "Expected ')' after expression."); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, &ParseError{Message: "Unexpected token in expression.", Token: p.peek().Text}
	}
}

// parseLiteral converts the current literal token into a typed value.
func (p *Parser) parseLiteral() (Expression, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.IntLiteral:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, &ParseError{Message: "Invalid integer literal.", Token: tok.Text}
		}
		return &LiteralExpr{Value: v}, nil

	case lexer.FloatLiteral:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &ParseError{Message: "Invalid float literal.", Token: tok.Text}
		}
		return &LiteralExpr{Value: v}, nil

	case lexer.StringLiteral:
		p.advance()
		return &LiteralExpr{Value: tok.Text}, nil

	case lexer.DateLiteral:
		p.advance()
		return &LiteralExpr{Value: parseDate(tok.Text)}, nil

	case lexer.TimestampLiteral:
		p.advance()
		return &LiteralExpr{Value: parseTimestamp(tok.Text)}, nil

	case lexer.True:
		p.advance()
		return &LiteralExpr{Value: true}, nil

	case lexer.False:
		p.advance()
		return &LiteralExpr{Value: false}, nil

	case lexer.Null:
		p.advance()
		return &LiteralExpr{Value: nil}, nil

	default:
		return nil, &ParseError{Message: "Expected literal value.", Token: tok.Text}
	}
}

// parseDate decodes the lexer-validated fixed format YYYY-MM-DD.
func parseDate(text string) Date {
	y, _ := strconv.Atoi(text[0:4])
	m, _ := strconv.Atoi(text[5:7])
	d, _ := strconv.Atoi(text[8:10])
	return Date{Year: y, Month: m, Day: d}
}

// parseTimestamp decodes the fixed format YYYY-MM-DD hh:mm:ss.
func parseTimestamp(text string) Timestamp {
	d := parseDate(text[:10])
	hh, _ := strconv.Atoi(text[11:13])
	mm, _ := strconv.Atoi(text[14:16])
	ss, _ := strconv.Atoi(text[17:19])
	return Timestamp{Year: d.Year, Month: d.Month, Day: d.Day, Hour: hh, Minute: mm, Second: ss}
}

// ----- cursor helpers -----

func (p *Parser) peek() lexer.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return lexer.Token{Type: lexer.EofFile}
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// match is a non-consuming test of the current token type.
func (p *Parser) match(t lexer.TokenType) bool {
	return p.peek().Type == t
}

// ensure consumes a token of the expected type or fails with a ParseError
// carrying the offending token's text.
func (p *Parser) ensure(t lexer.TokenType, message string) (lexer.Token, error) {
	if p.match(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, &ParseError{Message: message, Token: p.peek().Text}
}
