package shell

// keywords offered by the completer regardless of the connected database.
var keywords = []string{
	"ALTER", "AND", "AS", "ASC", "BETWEEN", "BY", "CASE", "CAST", "CREATE",
	"CREATE DIMENSION TABLE", "CREATE EXTERNAL TABLE", "CREATE FACT TABLE",
	"CREATE JOIN INDEX", "CREATE AGGREGATING INDEX", "CREATE VIEW",
	"CROSS JOIN", "DATABASE", "DELETE", "DESC", "DESCRIBE", "DISTINCT", "DROP",
	"ELSE", "END", "ENGINE", "EXISTS", "EXPLAIN", "FALSE", "FROM", "FULL JOIN",
	"GROUP BY", "HAVING", "IN", "INNER JOIN", "INSERT INTO", "INTERVAL", "IS",
	"JOIN", "LEFT JOIN", "LIKE", "LIMIT", "NOT", "NULL", "OFFSET", "ON", "OR",
	"ORDER BY", "OUTER", "PARTITION BY", "PRIMARY INDEX", "RIGHT JOIN",
	"SELECT", "SET", "SHOW", "SHOW DATABASES", "SHOW ENGINES", "SHOW TABLES",
	"TABLE", "THEN", "TRUE", "UNION", "UNION ALL", "UPDATE", "USE", "VALUES",
	"VIEW", "WHEN", "WHERE", "WITH",
}

// functions offered by the completer.
var functions = []string{
	"ABS", "ARRAY_AGG", "ARRAY_CONCAT", "ARRAY_COUNT", "ARRAY_DISTINCT",
	"ARRAY_JOIN", "AVG", "CEIL", "COALESCE", "CONCAT", "COUNT", "CURRENT_DATE",
	"CURRENT_TIMESTAMP", "DATE_ADD", "DATE_DIFF", "DATE_TRUNC", "EXTRACT",
	"FLOOR", "IFNULL", "LENGTH", "LOWER", "LTRIM", "MAX", "MEDIAN", "MIN",
	"NOW", "NULLIF", "REGEXP_LIKE", "REPLACE", "ROUND", "RTRIM", "SPLIT",
	"STDDEV", "SUBSTR", "SUM", "TO_DATE", "TO_STRING", "TO_TIMESTAMP", "TRIM",
	"TRY_CAST", "UPPER",
}
