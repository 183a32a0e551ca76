package rule

import "embed"

// builtinRulesFS embeds the built-in rules directory.
// Rules cover authentication abuse, privilege changes, crashes and
// common malware markers found in system and application logs.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS

// BuiltinSource is the rule source name that selects the embedded rules.
const BuiltinSource = "builtin"
