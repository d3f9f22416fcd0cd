package lexer

// TokenType classifies a lexed token.
type TokenType int

const (
	// literals and names
	Identifier TokenType = iota
	IntLiteral
	FloatLiteral
	StringLiteral
	DateLiteral
	TimestampLiteral
	BoolLiteral
	NullLiteral

	// keywords
	Select
	From
	Where
	Insert
	Into
	Values
	Update
	Set
	Delete
	Create
	Table
	Index
	Drop
	Int
	Float
	Varchar
	Bool
	Date
	Timestamp
	Join
	On
	Group
	By
	Having
	Order
	Asc
	Desc
	If
	Exists
	Primary
	Key
	As
	Limit
	Offset
	And
	Or
	Not
	Is
	True
	False
	Null

	// operators
	Eq
	Ne
	Gt
	Lt
	Gte
	Lte
	Plus
	Minus
	Star

	// punctuation
	Comma
	Dot
	Lparen
	Rparen
	Semicolon

	// recovery and termination
	Unknown
	EofFile
)

var tokenNames = map[TokenType]string{
	Identifier:       "IDENTIFIER",
	IntLiteral:       "INT_LITERAL",
	FloatLiteral:     "FLOAT_LITERAL",
	StringLiteral:    "STRING_LITERAL",
	DateLiteral:      "DATE_LITERAL",
	TimestampLiteral: "TIMESTAMP_LITERAL",
	BoolLiteral:      "BOOL_LITERAL",
	NullLiteral:      "NULL_LITERAL",
	Select:           "SELECT",
	From:             "FROM",
	Where:            "WHERE",
	Insert:           "INSERT",
	Into:             "INTO",
	Values:           "VALUES",
	Update:           "UPDATE",
	Set:              "SET",
	Delete:           "DELETE",
	Create:           "CREATE",
	Table:            "TABLE",
	Index:            "INDEX",
	Drop:             "DROP",
	Int:              "INT",
	Float:            "FLOAT",
	Varchar:          "VARCHAR",
	Bool:             "BOOL",
	Date:             "DATE",
	Timestamp:        "TIMESTAMP",
	Join:             "JOIN",
	On:               "ON",
	Group:            "GROUP",
	By:               "BY",
	Having:           "HAVING",
	Order:            "ORDER",
	Asc:              "ASC",
	Desc:             "DESC",
	If:               "IF",
	Exists:           "EXISTS",
	Primary:          "PRIMARY",
	Key:              "KEY",
	As:               "AS",
	Limit:            "LIMIT",
	Offset:           "OFFSET",
	And:              "AND",
	Or:               "OR",
	Not:              "NOT",
	Is:               "IS",
	True:             "TRUE",
	False:            "FALSE",
	Null:             "NULL",
	Eq:               "EQ",
	Ne:               "NE",
	Gt:               "GT",
	Lt:               "LT",
	Gte:              "GTE",
	Lte:              "LTE",
	Plus:             "PLUS",
	Minus:            "MINUS",
	Star:             "STAR",
	Comma:            "COMMA",
	Dot:              "DOT",
	Lparen:           "LPAREN",
	Rparen:           "RPAREN",
	Semicolon:        "SEMICOLON",
	Unknown:          "UNKNOWN",
	EofFile:          "EOF",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps uppercased identifier text to keyword token types.
// Identifier matching stays case-sensitive; only keywords fold case.
var keywords = map[string]TokenType{
	"SELECT":    Select,
	"FROM":      From,
	"WHERE":     Where,
	"INSERT":    Insert,
	"INTO":      Into,
	"VALUES":    Values,
	"UPDATE":    Update,
	"SET":       Set,
	"DELETE":    Delete,
	"CREATE":    Create,
	"TABLE":     Table,
	"INDEX":     Index,
	"DROP":      Drop,
	"INT":       Int,
	"FLOAT":     Float,
	"VARCHAR":   Varchar,
	"BOOL":      Bool,
	"DATE":      Date,
	"TIMESTAMP": Timestamp,
	"JOIN":      Join,
	"ON":        On,
	"GROUP":     Group,
	"BY":        By,
	"HAVING":    Having,
	"ORDER":     Order,
	"ASC":       Asc,
	"DESC":      Desc,
	"IF":        If,
	"EXISTS":    Exists,
	"PRIMARY":   Primary,
	"KEY":       Key,
	"AS":        As,
	"LIMIT":     Limit,
	"OFFSET":    Offset,
	"AND":       And,
	"OR":        Or,
	"NOT":       Not,
	"IS":        Is,
	"TRUE":      True,
	"FALSE":     False,
	"NULL":      Null,
}

// Token is one lexed unit. Text preserves the original input casing; Pos is
// the byte offset of the token's first character, kept for error messages.
type Token struct {
	Type TokenType
	Text string
	Pos  int
}
