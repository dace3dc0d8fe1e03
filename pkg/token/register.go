package token

import (
	"strings"
	"sync"
)

// nextTokenID tracks the next available dynamic token ID.
// Dynamic tokens start after maxBuiltin (999).
var (
	registryMu      sync.RWMutex
	nextTokenID     = maxBuiltin
	dynamicTokens   = make(map[TokenType]string)
	dynamicKeywords = make(map[string]TokenType)
)

// Register registers a keyword with the given name and returns its token type.
// Grammar extensions use this for keywords the core grammar does not know,
// like EXTERNAL, STORED or LOCATION. Registering a name twice returns the
// same token type.
func Register(name string) TokenType {
	upper := strings.ToUpper(name)
	lower := strings.ToLower(name)

	registryMu.Lock()
	defer registryMu.Unlock()

	if t, ok := dynamicKeywords[lower]; ok {
		return t
	}
	if t, ok := keywords[lower]; ok {
		return t
	}

	nextTokenID++
	t := nextTokenID
	dynamicTokens[t] = upper
	dynamicKeywords[lower] = t
	return t
}

// getDynamicName returns the name of a dynamic token.
func getDynamicName(t TokenType) (string, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	name, ok := dynamicTokens[t]
	return name, ok
}

// LookupDynamicKeyword returns the token type for a registered keyword.
// Returns IDENT and false if the keyword is not registered.
func LookupDynamicKeyword(name string) (TokenType, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if tok, ok := dynamicKeywords[name]; ok {
		return tok, true
	}
	return IDENT, false
}

// IsDynamic returns true if the token type is a dynamically registered token.
func IsDynamic(t TokenType) bool {
	return t > maxBuiltin
}

// RegisteredTokens returns a copy of all registered dynamic tokens.
func RegisteredTokens() map[TokenType]string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make(map[TokenType]string, len(dynamicTokens))
	for k, v := range dynamicTokens {
		result[k] = v
	}
	return result
}
