package schema

import "strings"

// LogicalType is the coarse classification of a column's declared type used
// by the resolution algorithms.
type LogicalType int

const (
	OtherType LogicalType = iota
	StringType
	NumericType
	TemporalType
	BooleanType
	BinaryType
)

// String returns the string representation of LogicalType.
func (t LogicalType) String() string {
	switch t {
	case StringType:
		return "string"
	case NumericType:
		return "numeric"
	case TemporalType:
		return "temporal"
	case BooleanType:
		return "boolean"
	case BinaryType:
		return "binary"
	default:
		return "other"
	}
}

var logicalTypes = map[string]LogicalType{
	"CHAR":              StringType,
	"CHARACTER":         StringType,
	"NCHAR":             StringType,
	"VARCHAR":           StringType,
	"VARCHAR2":          StringType,
	"NVARCHAR":          StringType,
	"NVARCHAR2":         StringType,
	"CHARACTER VARYING": StringType,
	"TEXT":              StringType,
	"TINYTEXT":          StringType,
	"MEDIUMTEXT":        StringType,
	"LONGTEXT":          StringType,
	"CLOB":              StringType,
	"NCLOB":             StringType,
	"LONGVARCHAR":       StringType,
	"UUID":              StringType,
	"ENUM":              StringType,
	"CITEXT":            StringType,

	"TINYINT":          NumericType,
	"SMALLINT":         NumericType,
	"MEDIUMINT":        NumericType,
	"INT":              NumericType,
	"INT2":             NumericType,
	"INT4":             NumericType,
	"INT8":             NumericType,
	"INTEGER":          NumericType,
	"BIGINT":           NumericType,
	"SERIAL":           NumericType,
	"BIGSERIAL":        NumericType,
	"SMALLSERIAL":      NumericType,
	"DECIMAL":          NumericType,
	"NUMERIC":          NumericType,
	"NUMBER":           NumericType,
	"FLOAT":            NumericType,
	"FLOAT4":           NumericType,
	"FLOAT8":           NumericType,
	"REAL":             NumericType,
	"DOUBLE":           NumericType,
	"DOUBLE PRECISION": NumericType,
	"MONEY":            NumericType,

	"DATE":                        TemporalType,
	"TIME":                        TemporalType,
	"TIMETZ":                      TemporalType,
	"DATETIME":                    TemporalType,
	"TIMESTAMP":                   TemporalType,
	"TIMESTAMPTZ":                 TemporalType,
	"TIMESTAMP WITH TIME ZONE":    TemporalType,
	"TIMESTAMP WITHOUT TIME ZONE": TemporalType,
	"TIME WITHOUT TIME ZONE":      TemporalType,
	"TIME WITH TIME ZONE":         TemporalType,

	"BOOL":    BooleanType,
	"BOOLEAN": BooleanType,
	"BIT":     BooleanType,

	"BLOB":       BinaryType,
	"LONGBLOB":   BinaryType,
	"MEDIUMBLOB": BinaryType,
	"BYTEA":      BinaryType,
	"BINARY":     BinaryType,
	"VARBINARY":  BinaryType,
	"RAW":        BinaryType,
}

// BaseType normalizes a declared db type: upper case, size/precision and
// modifiers such as UNSIGNED removed. "varchar(200)" becomes "VARCHAR".
func BaseType(dbType string) string {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			rest = t[i+j+1:]
		}
		t = strings.TrimSpace(t[:i] + rest)
	}
	t = strings.TrimSuffix(t, " UNSIGNED")
	t = strings.TrimSuffix(t, " ZEROFILL")
	t = strings.TrimSuffix(t, "[]")
	return strings.Join(strings.Fields(t), " ")
}

// ClassifyType returns the logical type of a declared db type.
func ClassifyType(dbType string) LogicalType {
	base := BaseType(dbType)
	if lt, ok := logicalTypes[base]; ok {
		return lt
	}
	switch {
	case strings.Contains(base, "CHAR"), strings.Contains(base, "TEXT"):
		return StringType
	case strings.HasPrefix(base, "INT"), strings.HasSuffix(base, "INT"):
		return NumericType
	case strings.HasPrefix(base, "TIMESTAMP"), strings.HasPrefix(base, "DATE"):
		return TemporalType
	}
	return OtherType
}

// NativeType returns the name of the runtime type a column value maps to.
// The names follow the parameter type vocabulary of fixed conditions.
func NativeType(dbType string) string {
	base := BaseType(dbType)
	switch base {
	case "DATE":
		return "Date"
	case "TIME", "TIMETZ", "TIME WITH TIME ZONE", "TIME WITHOUT TIME ZONE":
		return "Time"
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INT2", "INT4", "INTEGER", "SERIAL", "SMALLSERIAL":
		return "Integer"
	case "BIGINT", "INT8", "BIGSERIAL":
		return "Long"
	}
	switch ClassifyType(dbType) {
	case StringType:
		return "String"
	case NumericType:
		return "BigDecimal"
	case TemporalType:
		return "Timestamp"
	case BooleanType:
		return "Boolean"
	case BinaryType:
		return "byte[]"
	}
	return "Object"
}
