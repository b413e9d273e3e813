package db

import "strings"

// EscapeTag escapes characters that break TAG filter clauses, so repository
// code can splice identifiers and paths into FT.SEARCH queries safely.
func EscapeTag(s string) string {
	return tagEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	` `, `\ `,
	`,`, `\,`,
	`.`, `\.`,
	`<`, `\<`,
	`>`, `\>`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`"`, `\"`,
	`'`, `\'`,
	`:`, `\:`,
	`;`, `\;`,
	`!`, `\!`,
	`@`, `\@`,
	`#`, `\#`,
	`$`, `\$`,
	`%`, `\%`,
	`^`, `\^`,
	`&`, `\&`,
	`*`, `\*`,
	`(`, `\(`,
	`)`, `\)`,
	`-`, `\-`,
	`+`, `\+`,
	`=`, `\=`,
	`~`, `\~`,
	`/`, `\/`,
	`|`, `\|`,
)
