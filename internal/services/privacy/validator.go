package privacy

import (
	"fmt"
	"sort"
	"strings"
)

// blacklistTerms match keys that must never cross the trust boundary:
// account and user identifiers, wallet addresses, balances, position sizing,
// P&L, and credentials. Matching is case-insensitive substring over each key.
var blacklistTerms = []string{
	"account",
	"user_id",
	"username",
	"wallet",
	"balance",
	"position_size",
	"position_value",
	"pnl",
	"profit_loss",
	"api_key",
	"apikey",
	"api_secret",
	"secret",
	"password",
	"credential",
	"private_key",
	"access_token",
	"auth_token",
}

// Validate recursively scans all keys of payload against the blacklist and
// returns every matching dotted path. A non-empty result means the payload
// is unsafe to send; callers abort the remote path (fail closed) rather than
// redacting.
func Validate(payload map[string]any) (bool, []string) {
	var offending []string
	scan(payload, "", &offending)
	sort.Strings(offending)
	return len(offending) == 0, offending
}

func scan(value any, path string, offending *[]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if matchesBlacklist(key) {
				*offending = append(*offending, childPath)
			}
			scan(child, childPath, offending)
		}
	case []any:
		for i, child := range v {
			scan(child, fmt.Sprintf("%s[%d]", path, i), offending)
		}
	}
}

func matchesBlacklist(key string) bool {
	lower := strings.ToLower(key)
	for _, term := range blacklistTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
